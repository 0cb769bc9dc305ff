package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/airsense/internal/models"
)

// Canonical column names; the first entry of each alias list wins when a
// file carries more than one of them.
var columnAliases = map[string][]string{
	colCountry:   {"country_name", "country"},
	colCity:      {"city", "city_name"},
	colYear:      {"year"},
	colLat:       {"latitude", "lat"},
	colLon:       {"longitude", "lon", "lng"},
	colPM10:      {"pm10_concentration", "pm10"},
	colPM25:      {"pm25_concentration", "pm2.5_concentration", "pm25"},
	colNO2:       {"no2_concentration", "no2"},
	colIndex:     {"pollution_index"},
	colPerPerson: {"pollution_per_person"},
	colPredicted: {"predicted_pollution_index"},
	colAnomaly:   {"is_anomaly", "is_anomaly_dbscan"},
	colSeverity:  {"pollution_severity", "severity"},
}

const (
	colCountry   = "country"
	colCity      = "city"
	colYear      = "year"
	colLat       = "latitude"
	colLon       = "longitude"
	colPM10      = "pm10"
	colPM25      = "pm25"
	colNO2       = "no2"
	colIndex     = "pollution_index"
	colPerPerson = "pollution_per_person"
	colPredicted = "predicted_pollution_index"
	colAnomaly   = "is_anomaly"
	colSeverity  = "severity"
)

var requiredColumns = []string{
	colCountry, colCity, colYear, colLat, colLon,
	colPM10, colPM25, colNO2, colIndex, colPerPerson,
}

// Load reads a dataset from a local CSV file or an http(s) URL.
func Load(ctx context.Context, source string) (*Dataset, error) {
	if source == "" {
		return nil, errors.New("dataset source is empty")
	}

	var r io.ReadCloser
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		r, err = fetch(ctx, source)
	} else {
		r, err = os.Open(source)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening dataset %s: %w", source, err)
	}
	defer r.Close()

	d, err := Parse(r, source)
	if err != nil {
		return nil, err
	}

	slog.Info("dataset loaded", "source", source, "rows", d.Len(), "anomaly_column", d.anomalyColumn)
	return d, nil
}

func fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

// Parse decodes CSV rows with a header line. source is only used in error
// messages.
func Parse(r io.Reader, source string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: error reading header: %w", source, err)
	}

	cols, anomalyColumn, err := resolveColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var records []models.PollutionRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}

		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, line, err)
		}
		records = append(records, rec)
	}

	d := New(records)
	d.source = source
	d.anomalyColumn = anomalyColumn
	return d, nil
}

func resolveColumns(header []string) (map[string]int, string, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	cols := make(map[string]int, len(columnAliases))
	var anomalyColumn string
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				cols[canonical] = i
				if canonical == colAnomaly {
					anomalyColumn = alias
				}
				break
			}
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, columnAliases[c][0])
		}
	}
	if len(missing) > 0 {
		return nil, "", fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return cols, anomalyColumn, nil
}

func parseRow(row []string, cols map[string]int) (models.PollutionRecord, error) {
	p := rowParser{row: row, cols: cols}

	rec := models.PollutionRecord{
		Country:            p.str(colCountry),
		City:               p.str(colCity),
		Year:               p.year(),
		Latitude:           p.float(colLat),
		Longitude:          p.float(colLon),
		PM10:               p.concentration(colPM10),
		PM25:               p.concentration(colPM25),
		NO2:                p.concentration(colNO2),
		PollutionIndex:     p.float(colIndex),
		PollutionPerPerson: p.float(colPerPerson),
		PredictedIndex:     p.optionalFloat(colPredicted),
		IsAnomaly:          p.flag(colAnomaly),
		Severity:           p.severity(),
	}
	if p.err != nil {
		return models.PollutionRecord{}, p.err
	}

	if rec.Latitude < -90 || rec.Latitude > 90 {
		return models.PollutionRecord{}, fmt.Errorf("latitude out of range [-90, 90]: %v", rec.Latitude)
	}
	if rec.Longitude < -180 || rec.Longitude > 180 {
		return models.PollutionRecord{}, fmt.Errorf("longitude out of range [-180, 180]: %v", rec.Longitude)
	}

	return rec, nil
}

// rowParser keeps the first error so a row can be decoded field by field.
type rowParser struct {
	row  []string
	cols map[string]int
	err  error
}

func (p *rowParser) cell(col string) (string, bool) {
	i, ok := p.cols[col]
	if !ok || i >= len(p.row) {
		return "", false
	}
	return strings.TrimSpace(p.row[i]), true
}

func (p *rowParser) fail(col, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("column %s: invalid value %q: %w", col, value, err)
	}
}

func (p *rowParser) str(col string) string {
	v, _ := p.cell(col)
	if v == "" {
		p.fail(col, v, errors.New("value is required"))
	}
	return v
}

func (p *rowParser) float(col string) float64 {
	v, _ := p.cell(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(col, v, err)
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(col, v, errors.New("not a finite number"))
		return 0
	}
	return f
}

func (p *rowParser) concentration(col string) float64 {
	f := p.float(col)
	if f < 0 {
		v, _ := p.cell(col)
		p.fail(col, v, errors.New("must not be negative"))
	}
	return f
}

func (p *rowParser) optionalFloat(col string) *float64 {
	v, ok := p.cell(col)
	if !ok || v == "" || strings.EqualFold(v, "nan") {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(col, v, err)
		return nil
	}
	return &f
}

// year accepts "2016" and the "2016.0" that pandas writes for float columns.
func (p *rowParser) year() int {
	v, _ := p.cell(colYear)
	if y, err := strconv.Atoi(v); err == nil {
		return y
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) {
		p.fail(colYear, v, errors.New("not an integer year"))
		return 0
	}
	return int(f)
}

func (p *rowParser) flag(col string) bool {
	v, ok := p.cell(col)
	if !ok || v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "yes", "y":
		return true
	case "no", "n":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(col, v, err)
	}
	return b
}

func (p *rowParser) severity() models.SeverityLabel {
	v, ok := p.cell(colSeverity)
	if !ok || v == "" {
		return ""
	}
	label, err := models.ParseSeverityLabel(v)
	if err != nil {
		p.fail(colSeverity, v, err)
	}
	return label
}
