// Package advisor asks an external assistant for station placement suggestions.
// Its answers are advisory: the staffing requirement always comes from the resolver.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"controlos-backend/internal/config"
	"controlos-backend/internal/models"
	"controlos-backend/internal/staffing"
)

var (
	ErrDisabled    = errors.New("advisor is not configured")
	ErrUnavailable = errors.New("advisor unavailable")
)

const maxResponseBytes = 1 << 20

type RosterEntry struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Position  string `json:"position"`
	IsManager bool   `json:"is_manager"`
	IsTrainee bool   `json:"is_trainee"`
}

// Request is everything the advisor sees about one shift.
type Request struct {
	Date                string                      `json:"date"`
	Shift               models.ShiftType            `json:"shift"`
	Sales               float64                     `json:"sales"`
	Requirement         staffing.Requirement        `json:"requirement"`
	RecommendedStations []string                    `json:"recommended_stations"`
	Stations            []models.Station            `json:"stations"`
	StaffingTable       []models.StaffingTableEntry `json:"staffing_table"`
	Projections         []models.HourlyProjection   `json:"projections"`
	Roster              []RosterEntry               `json:"roster"`
	Assigned            models.StationAssignments   `json:"assigned"`
	Trainees            models.StationAssignments   `json:"trainees"`
}

type Suggestion struct {
	EmployeeID uint   `json:"employee_id"`
	Station    string `json:"station"`
	Reason     string `json:"reason,omitempty"`
}

type Answer struct {
	Suggestions []Suggestion `json:"suggestions"`
	Text        string       `json:"text"`
}

type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// New returns nil when no advisor URL is configured.
func New(cfg *config.Config) *Client {
	if cfg.AdvisorURL == "" {
		return nil
	}
	timeout := cfg.AdvisorTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:    cfg.AdvisorURL,
		apiKey: cfg.AdvisorAPIKey,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c != nil
}

// Suggest posts the request and accepts either a JSON answer or plain text.
func (c *Client) Suggest(ctx context.Context, req Request) (*Answer, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/plain")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	return parseAnswer(raw), nil
}

func parseAnswer(raw []byte) *Answer {
	trimmed := bytes.TrimSpace(raw)
	var ans Answer
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &ans) == nil {
		if ans.Suggestions == nil {
			ans.Suggestions = []Suggestion{}
		}
		return &ans
	}
	return &Answer{Suggestions: []Suggestion{}, Text: strings.TrimSpace(string(raw))}
}

// Filter drops suggestions naming an employee outside the roster or an unknown station.
func Filter(ans *Answer, roster []RosterEntry, stations []models.Station) (kept []Suggestion, discarded int) {
	employees := make(map[uint]struct{}, len(roster))
	for _, r := range roster {
		employees[r.ID] = struct{}{}
	}
	known := make(map[string]struct{}, len(stations))
	for _, s := range stations {
		known[s.ID] = struct{}{}
	}

	kept = []Suggestion{}
	for _, s := range ans.Suggestions {
		_, okEmployee := employees[s.EmployeeID]
		_, okStation := known[s.Station]
		if !okEmployee || !okStation {
			discarded++
			continue
		}
		kept = append(kept, s)
	}
	return kept, discarded
}
