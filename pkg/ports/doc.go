/*
Package ports defines the driven ports (interfaces) of the wizard engine.

These interfaces decouple the session engine from storage backends, lock
providers, template sources and site generators.

# Key Interfaces

  - SessionStore: persists and loads one session per user.
  - DistributedLocker: serializes a user's mutations across replicas.
  - CatalogSource: supplies template catalog documents (e.g., from Loam or memory).
  - Generator: turns a confirmed session into an artifact descriptor.
*/
package ports
