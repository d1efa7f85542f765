package memengine

import (
	"strings"
	"testing"
)

func TestParseSelect(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		props   []string
		class   string
		where   bool
		wantErr string
	}{
		{name: "star", query: "SELECT * FROM Widget", class: "Widget"},
		{name: "lowercase keywords", query: "select * from Widget", class: "Widget"},
		{name: "property list", query: "SELECT Name, Size FROM Widget", props: []string{"Name", "Size"}, class: "Widget"},
		{name: "property list no spaces", query: "SELECT Name,Size FROM Widget", props: []string{"Name", "Size"}, class: "Widget"},
		{name: "with where", query: "SELECT * FROM Widget WHERE Size > 5", class: "Widget", where: true},
		{name: "missing from", query: "SELECT *", wantErr: "missing FROM"},
		{name: "not a select", query: "DELETE FROM Widget", wantErr: "expected SELECT"},
		{name: "missing class", query: "SELECT * FROM", wantErr: "missing class"},
		{name: "star plus names", query: "SELECT *, Name FROM Widget", wantErr: "cannot be combined"},
		{name: "trailing junk", query: "SELECT * FROM Widget HAVING x", wantErr: "unexpected token"},
		{name: "empty where", query: "SELECT * FROM Widget WHERE", wantErr: "empty WHERE"},
		{name: "bad where", query: "SELECT * FROM Widget WHERE Size >", wantErr: "WHERE clause"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, err := parseSelect(tc.query)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("error %q does not mention %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSelect failed: %v", err)
			}
			if st.class != tc.class {
				t.Errorf("class = %q, want %q", st.class, tc.class)
			}
			if len(st.properties) != len(tc.props) {
				t.Fatalf("properties = %v, want %v", st.properties, tc.props)
			}
			for i, p := range tc.props {
				if st.properties[i] != p {
					t.Errorf("properties[%d] = %q, want %q", i, st.properties[i], p)
				}
			}
			if (st.where != nil) != tc.where {
				t.Errorf("where compiled = %v, want %v", st.where != nil, tc.where)
			}
		})
	}
}

func TestNormalizeWhere(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`Name = "w1"`, `Name == "w1"`},
		{`Name == "w1"`, `Name == "w1"`},
		{`Size >= 5`, `Size >= 5`},
		{`Size <= 5`, `Size <= 5`},
		{`Size <> 5`, `Size != 5`},
		{`Size != 5`, `Size != 5`},
		{`Name = "a" AND Size > 2`, `Name == "a" and Size > 2`},
		{`Enabled = TRUE OR Size = 0`, `Enabled == true or Size == 0`},
		{`NOT (Size = 1)`, `not (Size == 1)`},
		{`Color = NULL`, `Color == nil`},
		{`Name = "x = y AND z"`, `Name == "x = y AND z"`},
		{`Name = 'AND'`, `Name == 'AND'`},
	}
	for _, tc := range tests {
		if got := normalizeWhere(tc.in); got != tc.want {
			t.Errorf("normalizeWhere(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWhereMatching(t *testing.T) {
	eng := fixtureEngine(t)
	widgets := eng.namespaces["root/test"].instances[:3]

	tests := []struct {
		where string
		want  []bool
	}{
		{`Size > 15`, []bool{false, true, true}},
		{`Name = "w1"`, []bool{true, false, false}},
		{`Size >= 10 AND Color = "blue"`, []bool{false, true, false}},
		{`Color = "red" OR Color = "green"`, []bool{true, false, true}},
		{`NOT (Size = 10)`, []bool{false, true, true}},
	}
	for _, tc := range tests {
		t.Run(tc.where, func(t *testing.T) {
			st, err := parseSelect("SELECT * FROM Widget WHERE " + tc.where)
			if err != nil {
				t.Fatalf("parseSelect failed: %v", err)
			}
			for i, rec := range widgets {
				got, err := st.matches(rec)
				if err != nil {
					t.Fatalf("matches(%d) failed: %v", i, err)
				}
				if got != tc.want[i] {
					t.Errorf("matches(w%d) = %v, want %v", i+1, got, tc.want[i])
				}
			}
		})
	}
}

func TestWhereNonBooleanRejected(t *testing.T) {
	eng := fixtureEngine(t)
	rec := eng.namespaces["root/test"].instances[0]

	st, err := parseSelect("SELECT * FROM Widget WHERE Size + 1")
	if err != nil {
		t.Fatalf("parseSelect failed: %v", err)
	}
	if _, err := st.matches(rec); err == nil {
		t.Error("expected error for non-boolean WHERE result")
	}
}
