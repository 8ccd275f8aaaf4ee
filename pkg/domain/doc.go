/*
Package domain contains the core domain models of the customization wizard.

It defines the per-user Session, its flow Position, the artifact descriptor returned
by generators, the error taxonomy surfaced to transports and the lifecycle hooks used
for observability. This package is kept pure and free of I/O.

# Key Entities

  - Session: the persisted progress of one user (template, fields, history, position).
  - Position: the phase of the flow plus the step index and edit marker.
  - Artifact: opaque reference to a generated site.
  - FieldError: a structured, per-field rejection reason.
*/
package domain
