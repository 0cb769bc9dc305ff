package dataset

import (
	"testing"

	"github.com/mr1hm/airsense/internal/models"
)

func testDataset() *Dataset {
	return New([]models.PollutionRecord{
		{Country: "India", City: "Delhi", Year: 2016},
		{Country: "India", City: "Mumbai", Year: 2016},
		{Country: "China", City: "Beijing", Year: 2015},
		{Country: "India", City: "Delhi", Year: 2017},
	})
}

func TestMatchCountryCity_CaseAndSpaceInsensitive(t *testing.T) {
	d := testDataset()

	inputs := [][2]string{
		{"india", "Delhi"},
		{"India", "delhi"},
		{" India ", " Delhi "},
		{"INDIA", "DELHI"},
	}
	for _, in := range inputs {
		got := d.MatchCountryCity(in[0], in[1])
		if len(got) != 2 {
			t.Errorf("MatchCountryCity(%q, %q): expected 2 rows, got %d", in[0], in[1], len(got))
			continue
		}
		if got[0].Year != 2016 || got[1].Year != 2017 {
			t.Errorf("expected dataset order, got years %d, %d", got[0].Year, got[1].Year)
		}
		if got[0].City != "Delhi" {
			t.Errorf("expected original casing Delhi, got %s", got[0].City)
		}
	}

	if got := d.MatchCountryCity("IN", "Delhi"); len(got) != 0 {
		t.Errorf("expected no match for different country string, got %d", len(got))
	}
}

func TestCityRecords(t *testing.T) {
	d := testDataset()

	if got := d.CityRecords("Delhi"); len(got) != 2 {
		t.Errorf("expected 2 Delhi rows, got %d", len(got))
	}
	if got := d.CityRecords("Atlantis"); len(got) != 0 {
		t.Errorf("expected 0 rows for unknown city, got %d", len(got))
	}
}

func TestDistinct(t *testing.T) {
	d := testDataset()

	cities := d.Cities()
	want := []string{"Beijing", "Delhi", "Mumbai"}
	if len(cities) != len(want) {
		t.Fatalf("expected %v, got %v", want, cities)
	}
	for i := range want {
		if cities[i] != want[i] {
			t.Errorf("expected %v, got %v", want, cities)
		}
	}

	if got := d.Countries(); len(got) != 2 {
		t.Errorf("expected 2 countries, got %v", got)
	}
}

func TestRecords_ReturnsCopy(t *testing.T) {
	d := testDataset()

	recs := d.Records()
	recs[0].City = "Changed"

	if d.Records()[0].City != "Delhi" {
		t.Error("mutating returned records changed the dataset")
	}
}
