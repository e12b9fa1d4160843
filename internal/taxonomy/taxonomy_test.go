package taxonomy

import (
	"errors"
	"slices"
	"testing"
)

func TestRegionOfRoundTrip(t *testing.T) {
	tax := Default()
	for _, s := range tax.Subdivisions() {
		r, ok := tax.RegionOf(s.Name)
		if !ok {
			t.Fatalf("RegionOf(%q) not found", s.Name)
		}
		found := 0
		for _, other := range tax.Regions() {
			for _, m := range other.Members {
				if m == s.Name {
					found++
					if other.ID != r.ID {
						t.Errorf("%s resolved to %s but listed in %s", s.Name, r.ID, other.ID)
					}
				}
			}
		}
		if found != 1 {
			t.Errorf("%s appears in %d regions", s.Name, found)
		}
	}
}

func TestLegacyCodeAndNameAgree(t *testing.T) {
	tax := Default()
	for _, s := range tax.Subdivisions() {
		if s.Code == "" {
			continue
		}
		byCode, ok := tax.Subdivision(s.Code)
		if !ok {
			t.Fatalf("Subdivision(%q) not found", s.Code)
		}
		byName, _ := tax.Subdivision(s.Name)
		if byCode != byName {
			t.Errorf("code %s -> %+v, name %s -> %+v", s.Code, byCode, s.Name, byName)
		}
		rc, _ := tax.RegionOf(s.Code)
		rn, _ := tax.RegionOf(s.Name)
		if rc.ID != rn.ID {
			t.Errorf("RegionOf(%s)=%s RegionOf(%s)=%s", s.Code, rc.ID, s.Name, rn.ID)
		}
	}
}

func TestRegionOfInputForms(t *testing.T) {
	tax := Default()
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"guangdong", "south", true},
		{"CN-GD", "south", true},
		{"cn-gd", "south", true},
		{" Sichuan ", "southwest", true},
		{"CN-TW", "", false},
		{"atlantis", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		r, ok := tax.RegionOf(c.in)
		if ok != c.ok || r.ID != c.want {
			t.Errorf("RegionOf(%q) = %q,%v want %q,%v", c.in, r.ID, ok, c.want, c.ok)
		}
	}
}

func TestByLabel(t *testing.T) {
	tax := Default()
	for _, in := range []string{"广东省", "广东", "内蒙古"} {
		if _, ok := tax.ByLabel(in); !ok {
			t.Errorf("ByLabel(%q) not found", in)
		}
	}
	s, _ := tax.ByLabel("广西")
	if s.Name != "guangxi" {
		t.Errorf("ByLabel(广西) = %q", s.Name)
	}
	if _, ok := tax.ByLabel("广"); ok {
		t.Error("single rune label should not match")
	}
}

func TestNewRejectsBrokenInvariants(t *testing.T) {
	_, err := New([]Region{
		{ID: "a", Members: []string{"x"}},
		{ID: "b", Members: []string{"X"}},
	}, nil)
	if !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("duplicate member: got %v", err)
	}
	_, err = New(nil, []Subdivision{{Name: "x", Code: "K1"}, {Name: "y", Code: "k1"}})
	if !errors.Is(err, ErrDuplicateCode) {
		t.Errorf("duplicate code: got %v", err)
	}
	_, err = New([]Region{{ID: "a"}, {ID: "a"}}, nil)
	if !errors.Is(err, ErrDuplicateRegion) {
		t.Errorf("duplicate region: got %v", err)
	}
}

func TestMembersWithoutDescriptors(t *testing.T) {
	tax, err := New([]Region{{ID: "North", Name: "North", Members: []string{"a", "b"}}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, ok := tax.RegionOf("a")
	if !ok || r.ID != "North" {
		t.Fatalf("RegionOf(a) = %+v,%v", r, ok)
	}
	s, ok := tax.Subdivision("b")
	if !ok || s.DisplayName() != "b" {
		t.Fatalf("Subdivision(b) = %+v,%v", s, ok)
	}
}

func TestReturnedRegionsDoNotAliasTable(t *testing.T) {
	tax := Default()
	tax.Regions()[0].Members[0] = "zzz"
	if r, ok := tax.Region("north"); ok {
		r.Members[1] = "zzz"
	}
	if r, ok := tax.RegionOf("beijing"); ok {
		r.Members = append(r.Members[:0], "zzz")
	}
	for _, s := range tax.Subdivisions() {
		r, ok := tax.RegionOf(s.Name)
		if !ok || !slices.Contains(r.Members, s.Name) {
			t.Fatalf("RegionOf(%q) = %+v, %v", s.Name, r, ok)
		}
	}
	if r, _ := tax.Region("north"); slices.Contains(r.Members, "zzz") {
		t.Fatalf("north members mutated: %v", r.Members)
	}
}
