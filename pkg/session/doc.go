/*
Package session coordinates stored photo sessions.

The conversation core is stateless; this package exists for clients that only
send a session ID. It serializes read-modify-write turns per session, locally
with reference-counted mutexes and across replicas with an optional
distributed locker.
*/
package session
