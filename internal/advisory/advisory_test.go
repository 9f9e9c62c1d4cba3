package advisory

import (
	"testing"

	"github.com/Brownie44l1/leaf-api/internal/model"
)

func TestLookup_KnownLabels(t *testing.T) {
	for _, l := range Labels {
		r := Lookup(string(l))
		if r.Name == "" || r.Description == "" || r.Treatment == "" {
			t.Errorf("%s: incomplete record %+v", l, r)
		}
		if r.Description == "Unknown disease type." {
			t.Errorf("%s: got fallback record", l)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	r := Lookup("Potato_Late_blight")
	if r.Name != "Potato_Late_blight" {
		t.Errorf("Name = %q, want the label", r.Name)
	}
	if r.Description != "Unknown disease type." {
		t.Errorf("Description = %q", r.Description)
	}
	if r.Treatment == "" {
		t.Error("empty treatment")
	}
}

func TestAll_MatchesDefaultCatalog(t *testing.T) {
	all := All()
	catalog := model.DefaultCatalog()
	if len(all) != catalog.Len() {
		t.Fatalf("len(All()) = %d, want %d", len(all), catalog.Len())
	}
	for i := 0; i < catalog.Len(); i++ {
		label, _ := catalog.Label(i)
		if _, ok := all[Label(label)]; !ok {
			t.Errorf("catalog label %q has no advisory record", label)
		}
		if Labels[i] != Label(label) {
			t.Errorf("Labels[%d] = %q, catalog has %q", i, Labels[i], label)
		}
	}
}
