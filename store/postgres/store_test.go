package postgres

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	backoffice "github.com/havelihousing/backoffice"
)

func TestUniqueViolationMapsConstraint(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{conActivePlot, backoffice.ErrPlotBooked},
		{conClientAadhar, backoffice.ErrClientExists},
		{conPropertyRERA, backoffice.ErrPropertyExists},
		{conEmployeeRERA, backoffice.ErrEmployeeExists},
		{conUserEmail, backoffice.ErrUserExists},
		{"properties_pkey", backoffice.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})
			if got := wrap("op", err); !errors.Is(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsOtherErrors(t *testing.T) {
	cause := &pgconn.PgError{Code: "23503", ConstraintName: "bookings_client_id_fkey"}
	got := wrap("create booking", cause)
	if backoffice.IsConflict(got) {
		t.Errorf("foreign key failure classified as conflict: %v", got)
	}
	if !errors.Is(got, cause) || !strings.Contains(got.Error(), "create booking") {
		t.Errorf("cause lost: %v", got)
	}
}

func TestLikePatternEscapes(t *testing.T) {
	tests := map[string]string{
		"sharma":  "%sharma%",
		"50%":     `%50\%%`,
		"a_b":     `%a\_b%`,
		`c:\path`: `%c:\\path%`,
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWhereBuildsPlaceholders(t *testing.T) {
	w := newWhere()
	w.add("status = " + w.arg("pending"))
	w.search("amit", "name", "phone_number")

	want := ` WHERE status = $1 AND (name ILIKE $2 ESCAPE '\' OR phone_number ILIKE $2 ESCAPE '\')`
	if got := w.String(); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if len(w.args) != 2 || w.args[1] != "%amit%" {
		t.Errorf("args: %v", w.args)
	}

	if newWhere().String() != "" {
		t.Error("empty where should render nothing")
	}
}

func TestMigrationsAreOrdered(t *testing.T) {
	versions := make([]string, len(migrations))
	for i, m := range migrations {
		versions[i] = m.Version
	}
	if !slices.IsSorted(versions) {
		t.Errorf("versions out of order: %v", versions)
	}
	if len(slices.Compact(slices.Clone(versions))) != len(versions) {
		t.Errorf("duplicate versions: %v", versions)
	}

	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	for _, c := range []string{conActivePlot, conClientAadhar, conPropertyRERA, conEmployeeRERA, conUserEmail} {
		if !strings.Contains(all.String(), c) {
			t.Errorf("no migration defines %s", c)
		}
	}
}
