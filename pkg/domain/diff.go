package domain

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// UserID is always present to identify the target.
	UserID string `json:"user_id"`

	Position   *Position `json:"position,omitempty"`
	TemplateID *string   `json:"template_id,omitempty"`

	// Fields contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Fields map[string]*string `json:"fields,omitempty"`

	// History is the full history when it changed other than by appending.
	History *[]int `json:"history,omitempty"`
	// Appended holds the new tail when history only grew.
	Appended []int `json:"appended,omitempty"`

	Confirmed *bool     `json:"confirmed,omitempty"`
	Artifact  *Artifact `json:"artifact,omitempty"`

	// ClearedArtifact is set when the session no longer has an artifact.
	ClearedArtifact bool `json:"cleared_artifact,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{UserID: newSession.UserID}

	if oldSession == nil || oldSession.Position != newSession.Position {
		pos := newSession.Position
		diff.Position = &pos
	}
	if oldSession == nil || oldSession.TemplateID != newSession.TemplateID {
		id := newSession.TemplateID
		diff.TemplateID = &id
	}
	if oldSession == nil || oldSession.Confirmed != newSession.Confirmed {
		c := newSession.Confirmed
		diff.Confirmed = &c
	}
	if newSession.Artifact != nil && (oldSession == nil || oldSession.Artifact == nil || *oldSession.Artifact != *newSession.Artifact) {
		diff.Artifact = newSession.Artifact
	}
	if newSession.Artifact == nil && oldSession != nil && oldSession.Artifact != nil {
		diff.ClearedArtifact = true
	}

	diff.Fields = diffFields(oldSession, newSession)
	diffHistory(diff, oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFields(old, new *Session) map[string]*string {
	delta := make(map[string]*string)

	for k, v := range new.Fields {
		if old != nil {
			if prev, ok := old.Fields[k]; ok && prev == v {
				continue
			}
		}
		val := v
		delta[k] = &val
	}

	if old != nil {
		for k := range old.Fields {
			if _, ok := new.Fields[k]; !ok {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffHistory(diff *SessionDiff, old, new *Session) {
	var prev []int
	if old != nil {
		prev = old.History
	}

	if len(new.History) >= len(prev) && equalInts(prev, new.History[:len(prev)]) {
		if len(new.History) > len(prev) {
			diff.Appended = append([]int(nil), new.History[len(prev):]...)
		}
		return
	}

	// Rewritten (reset)
	h := append([]int{}, new.History...)
	diff.History = &h
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Position == nil &&
		d.TemplateID == nil &&
		d.Confirmed == nil &&
		d.Artifact == nil &&
		!d.ClearedArtifact &&
		len(d.Fields) == 0 &&
		d.History == nil &&
		len(d.Appended) == 0
}
