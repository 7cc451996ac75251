package reporters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reaandrew/fxcopbridge/core"
	log "github.com/sirupsen/logrus"
)

type ReportIdGenerator interface {
	Generate() string
}

type UuidReportGenerator struct{}

func (u UuidReportGenerator) Generate() string {
	return uuid.New().String()
}

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHttpClient logs every request it sends.
type DefaultHttpClient struct {
	Client *http.Client
}

func (d DefaultHttpClient) Do(req *http.Request) (*http.Response, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(req)
	if err != nil {
		log.Errorf("Error sending %s %s: %v", req.Method, req.URL, err)
	} else {
		log.Debugf("%s %s: %s", req.Method, req.URL, response.Status)
	}
	return response, err
}

func NewDefaultHttpReporter(baseUrl, toolVersion string) HttpReporter {
	return HttpReporter{
		BaseURL:           strings.TrimSuffix(baseUrl, "/"),
		ToolVersion:       toolVersion,
		HTTPClient:        DefaultHttpClient{Client: &http.Client{Timeout: 30 * time.Second}},
		ReportIdGenerator: UuidReportGenerator{},
	}
}

// HttpReporter posts every finding set to a report collection service and
// marks the report completed once all sets are sent.
type HttpReporter struct {
	BaseURL           string
	ToolVersion       string
	HTTPClient        HttpClient
	ReportIdGenerator ReportIdGenerator
}

type resultsPayload struct {
	Tool        string         `json:"tool"`
	ToolVersion string         `json:"tool_version,omitempty"`
	Findings    []core.Finding `json:"findings"`
}

type completionPayload struct {
	Status   string `json:"status"`
	Findings int    `json:"findings"`
}

func (h HttpReporter) Report(repository core.FindingRepository) error {
	if h.BaseURL == "" {
		return fmt.Errorf("no base url configured for the http reporter")
	}
	reportId := h.ReportIdGenerator.Generate()
	log.Infof("Reporting findings to %s as report %s", h.BaseURL, reportId)

	total := 0
	iterator := repository.NewIterator()
	for iterator.HasNext() {
		findingSet, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve next finding set: %w", err)
		}
		if err := h.postFindings(findingSet, reportId); err != nil {
			return fmt.Errorf("failed to report finding set: %w", err)
		}
		total += len(findingSet.Findings)
	}

	if err := h.signalCompletion(reportId, total); err != nil {
		return fmt.Errorf("failed to signal completion: %w", err)
	}
	return nil
}

func (h HttpReporter) postFindings(findingSet core.FindingSet, reportId string) error {
	url := fmt.Sprintf("%s/reports/%s/results", h.BaseURL, reportId)

	return h.send(http.MethodPost, url, resultsPayload{
		Tool:        "fxcop",
		ToolVersion: h.ToolVersion,
		Findings:    findingSet.Findings,
	})
}

func (h HttpReporter) signalCompletion(reportId string, findings int) error {
	url := fmt.Sprintf("%s/report/%s", h.BaseURL, reportId)
	return h.send(http.MethodPatch, url, completionPayload{Status: "completed", Findings: findings})
}

func (h HttpReporter) send(method, url string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}
	return nil
}
