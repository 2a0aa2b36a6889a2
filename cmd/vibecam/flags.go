package main

import (
	"github.com/spf13/pflag"
)

// bind ties a flag to a config key. Unchanged flags leave the environment
// and config file in charge.
func bind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
