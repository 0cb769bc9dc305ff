package modelbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mr1hm/airsense/internal/models"
)

type featuresRequest struct {
	Features [][]float64 `json:"features"`
}

type regressionResponse struct {
	Predictions []float64 `json:"predictions"`
}

type clusterResponse struct {
	Labels []int `json:"labels"`
}

// Remote calls a model-serving sidecar that hosts the original artifacts.
// Failures are returned as-is; there is no retry or fallback prediction.
type Remote struct {
	baseURL         string
	httpClient      *http.Client
	clusterFeatures []string
}

func NewRemote(baseURL string, timeout time.Duration, clusterFeatures []string) *Remote {
	if len(clusterFeatures) == 0 {
		clusterFeatures = ClusterFeatures5
	}
	return &Remote{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: timeout},
		clusterFeatures: slices.Clone(clusterFeatures),
	}
}

// LoadRemote builds a bank that predicts through the sidecar. The severity
// table is still read from disk.
func LoadRemote(r *Remote, severityPath string) (*Bank, error) {
	if _, err := FeatureVector(models.PollutionRecord{}, r.clusterFeatures); err != nil {
		return nil, err
	}
	sev, err := LoadSeverityMap(severityPath)
	if err != nil {
		return nil, err
	}

	return &Bank{
		Backend:   BackendHTTP,
		Regressor: RemoteRegressor{r},
		Clusterer: RemoteClusterer{r},
		Severity:  sev,
	}, nil
}

func (r *Remote) post(ctx context.Context, path string, features []float64, out any) error {
	body, err := json.Marshal(featuresRequest{Features: [][]float64{features}})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// Health checks that the sidecar answers.
func (r *Remote) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("error creating health request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

type RemoteRegressor struct{ r *Remote }

func (rr RemoteRegressor) Predict(ctx context.Context, features []float64) (float64, error) {
	var out regressionResponse
	if err := rr.r.post(ctx, "/predict/regression", features, &out); err != nil {
		return 0, err
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("expected 1 prediction, got %d", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

type RemoteClusterer struct{ r *Remote }

func (rc RemoteClusterer) Predict(ctx context.Context, features []float64) (int, error) {
	if len(features) != len(rc.r.clusterFeatures) {
		return 0, fmt.Errorf("expected %d features, got %d", len(rc.r.clusterFeatures), len(features))
	}

	var out clusterResponse
	if err := rc.r.post(ctx, "/predict/cluster", features, &out); err != nil {
		return 0, err
	}
	if len(out.Labels) == 0 {
		return 0, errors.New("sidecar returned no cluster label")
	}
	return out.Labels[0], nil
}

func (rc RemoteClusterer) Features() []string {
	return slices.Clone(rc.r.clusterFeatures)
}
