package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/persistence/middleware"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/session"
)

// ListSessions prints one row per stored session.
func ListSessions(ctx context.Context, m *session.Manager, w io.Writer) error {
	users, err := m.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	sort.Strings(users)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tTEMPLATE\tPHASE\tREVISION\tUPDATED")
	for _, userID := range users {
		s, err := m.Load(ctx, userID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", userID, err)
		}
		template := s.TemplateID
		if template == "" {
			template = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.UserID, template, s.Position.Phase, s.Revision, s.LastUpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// InspectSession pretty prints a session as JSON. A non-nil redactor masks
// contact values first.
func InspectSession(ctx context.Context, m *session.Manager, userID string, redactor *middleware.Redactor, w io.Writer) error {
	s, err := m.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", userID, err)
	}
	if redactor != nil {
		s = redactor.Redact(s)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes the given sessions, or every session when all is set.
func RemoveSessions(ctx context.Context, m *session.Manager, users []string, all bool, w io.Writer) error {
	if all {
		var err error
		if users, err = m.List(ctx); err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
	}
	var errs []error
	for _, userID := range users {
		if err := m.Delete(ctx, userID); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", userID, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", userID)
	}
	return errors.Join(errs...)
}

// ResetSessions returns each user's session to idle.
func ResetSessions(ctx context.Context, m *session.Manager, users []string, w io.Writer) error {
	var errs []error
	for _, userID := range users {
		if _, err := m.Reset(ctx, userID); err != nil {
			errs = append(errs, fmt.Errorf("error resetting '%s': %w", userID, err))
			continue
		}
		fmt.Fprintf(w, "Reset session '%s'\n", userID)
	}
	return errors.Join(errs...)
}

// ImportSession stores a session read as JSON, in the form printed by
// InspectSession. An existing session of the same user is replaced.
func ImportSession(ctx context.Context, m *session.Manager, r io.Reader, w io.Writer) error {
	var s domain.Session
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("error decoding session: %w", err)
	}
	if s.UserID == "" {
		return fmt.Errorf("session has no user_id")
	}
	for name, value := range s.Fields {
		if value == middleware.Mask {
			return fmt.Errorf("field %q is redacted; export without --redact", name)
		}
	}
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}
	if err := m.Save(ctx, &s); err != nil {
		return fmt.Errorf("error saving session '%s': %w", s.UserID, err)
	}
	fmt.Fprintf(w, "Imported session '%s'\n", s.UserID)
	return nil
}

// SweepSessions removes sessions idle for longer than maxAge.
func SweepSessions(ctx context.Context, m *session.Manager, maxAge time.Duration, w io.Writer) error {
	n, err := session.NewSweeper(m, 0, maxAge, nil).Sweep(ctx)
	fmt.Fprintf(w, "Removed %d idle session(s)\n", n)
	return err
}
