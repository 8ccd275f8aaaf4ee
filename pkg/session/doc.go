/*
Package session implements per-user session management on top of a SessionStore.

The Manager serializes every read-modify-write of a user's session behind a
per-user mutex (optionally backed by a DistributedLocker across replicas),
creates sessions lazily, enforces the inactivity TTL on load and exposes
ExpireOlderThan for background sweeping via Sweeper.
*/
package session
