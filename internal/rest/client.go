package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rjinka/family-potluck/internal/models"
)

// APIError is a rejected REST call: the response status code plus the body
// message, when the server sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client talks to the Gatherings backend. Requests are credentialed via a
// cookie jar populated at login; all payloads are JSON.
type Client struct {
	base           *url.URL
	http           *http.Client
	logger         *logrus.Logger
	onUnauthorized func()
}

// NewClient creates a Client for the given API origin.
func NewClient(origin string, logger *logrus.Logger) (*Client, error) {
	base, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid API origin %q: %w", origin, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		base:   base,
		http:   &http.Client{Jar: jar},
		logger: logger,
	}, nil
}

// Origin returns the configured API origin.
func (c *Client) Origin() string {
	return c.base.String()
}

// OnUnauthorized registers a callback invoked whenever the server answers
// 401. The session layer uses it to drop the cached profile.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// do performs one JSON request. A non-nil out receives the decoded response
// body; error responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("request rejected")
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}
	return nil
}

// readErrorMessage extracts a usable message from an error body: either the
// conventional {"error": "..."} envelope or the raw text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(raw))
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// GoogleLogin signs in with a Google ID token and returns the profile.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*models.FamilyMember, error) {
	var user models.FamilyMember
	body := map[string]string{"id_token": idToken}
	if err := c.do(ctx, http.MethodPost, "/auth/google", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DevLogin signs in by email, creating the account on first use.
func (c *Client) DevLogin(ctx context.Context, email, name string) (*models.FamilyMember, error) {
	var user models.FamilyMember
	body := map[string]string{"email": email, "name": name}
	if err := c.do(ctx, http.MethodPost, "/auth/dev-login", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me returns the authenticated profile.
func (c *Client) Me(ctx context.Context) (*models.FamilyMember, error) {
	var user models.FamilyMember
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// Groups lists all groups visible to the caller.
func (c *Client) Groups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.do(ctx, http.MethodGet, "/groups", nil, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Group fetches one group by id.
func (c *Client) Group(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := c.do(ctx, http.MethodGet, "/groups/"+id, nil, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup creates a group administered by the given family.
func (c *Client) CreateGroup(ctx context.Context, name, adminID string) error {
	body := map[string]string{"name": name, "admin_id": adminID}
	return c.do(ctx, http.MethodPost, "/groups", nil, body, nil)
}

// DeleteGroup removes a group. Only its admin may do this.
func (c *Client) DeleteGroup(ctx context.Context, id, adminID string) error {
	q := url.Values{"admin_id": {adminID}}
	return c.do(ctx, http.MethodDelete, "/groups/"+id, q, nil, nil)
}

// LeaveGroup removes the family from the group's membership.
func (c *Client) LeaveGroup(ctx context.Context, groupID, familyID string) error {
	body := map[string]string{"group_id": groupID, "family_id": familyID}
	return c.do(ctx, http.MethodPost, "/groups/leave", nil, body, nil)
}

// JoinGroupByCode joins a group via its invite code.
func (c *Client) JoinGroupByCode(ctx context.Context, joinCode, familyID string) error {
	body := map[string]string{"join_code": joinCode, "family_id": familyID}
	return c.do(ctx, http.MethodPost, "/groups/join-by-code", nil, body, nil)
}

// GroupByCode previews a group by invite code without joining it.
func (c *Client) GroupByCode(ctx context.Context, code string) (*models.Group, error) {
	var group models.Group
	if err := c.do(ctx, http.MethodGet, "/groups/code/"+code, nil, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GroupMembers lists the families in a group.
func (c *Client) GroupMembers(ctx context.Context, groupID string) ([]models.FamilyMember, error) {
	var members []models.FamilyMember
	q := url.Values{"group_id": {groupID}}
	if err := c.do(ctx, http.MethodGet, "/groups/members", q, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ---------------------------------------------------------------------------
// Families
// ---------------------------------------------------------------------------

// FamilyUpdate carries the mutable profile fields. Nil fields stay unchanged.
type FamilyUpdate struct {
	Name               *string   `json:"name,omitempty"`
	Address            *string   `json:"address,omitempty"`
	Allergies          *string   `json:"allergies,omitempty"`
	DietaryPreferences *[]string `json:"dietary_preferences,omitempty"`
}

// UpdateFamilyMember patches the given profile.
func (c *Client) UpdateFamilyMember(ctx context.Context, id string, update FamilyUpdate) (*models.FamilyMember, error) {
	var user models.FamilyMember
	if err := c.do(ctx, http.MethodPatch, "/families/"+id, nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// CreateEventRequest describes a new gathering.
type CreateEventRequest struct {
	GroupID     string `json:"group_id"`
	HostID      string `json:"host_id"`
	Type        string `json:"type"`
	Date        string `json:"date"` // RFC 3339
	Location    string `json:"location"`
	Description string `json:"description"`
	Recurrence  string `json:"recurrence,omitempty"`
}

// EventUpdate carries mutable event fields for PATCH.
type EventUpdate struct {
	Date        *string `json:"date,omitempty"` // RFC 3339
	Type        *string `json:"type,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

// GroupEvents lists the events of a group.
func (c *Client) GroupEvents(ctx context.Context, groupID string) ([]models.Event, error) {
	var events []models.Event
	q := url.Values{"group_id": {groupID}}
	if err := c.do(ctx, http.MethodGet, "/events", q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UserEvents lists the events the family attends as a guest.
func (c *Client) UserEvents(ctx context.Context, familyID string) ([]models.Event, error) {
	var events []models.Event
	q := url.Values{"user_id": {familyID}}
	if err := c.do(ctx, http.MethodGet, "/events/user", q, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Event fetches one event by id.
func (c *Client) Event(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+id, nil, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent schedules a new gathering.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodPost, "/events", nil, req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent patches an event.
func (c *Client) UpdateEvent(ctx context.Context, id string, update EventUpdate) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodPatch, "/events/"+id, nil, update, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent cancels an event, or removes the caller when they are a guest.
func (c *Client) DeleteEvent(ctx context.Context, id, familyID string) error {
	q := url.Values{"user_id": {familyID}}
	return c.do(ctx, http.MethodDelete, "/events/"+id, q, nil, nil)
}

// FinishEvent marks a recurring event complete and rolls the series forward.
func (c *Client) FinishEvent(ctx context.Context, id, adminID string) error {
	q := url.Values{"admin_id": {adminID}}
	return c.do(ctx, http.MethodPost, "/events/"+id+"/finish", q, nil, nil)
}

// SkipEvent reschedules a recurring event to its next occurrence.
func (c *Client) SkipEvent(ctx context.Context, id, adminID string) error {
	q := url.Values{"admin_id": {adminID}}
	return c.do(ctx, http.MethodPost, "/events/"+id+"/skip", q, nil, nil)
}

// JoinEventByCode joins a single event as a guest via its invite code.
func (c *Client) JoinEventByCode(ctx context.Context, joinCode, familyID string) error {
	body := map[string]string{"join_code": joinCode, "family_id": familyID}
	return c.do(ctx, http.MethodPost, "/events/join-by-code", nil, body, nil)
}

// EventByCode previews an event by guest invite code without joining it.
func (c *Client) EventByCode(ctx context.Context, code string) (*models.Event, error) {
	var event models.Event
	if err := c.do(ctx, http.MethodGet, "/events/code/"+code, nil, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// EventStats returns hosting statistics for a recurring series.
func (c *Client) EventStats(ctx context.Context, id string) (*models.EventStats, error) {
	var stats models.EventStats
	if err := c.do(ctx, http.MethodGet, "/events/stats/"+id, nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ---------------------------------------------------------------------------
// RSVPs
// ---------------------------------------------------------------------------

// RSVPRequest upserts the family's reply for an event.
type RSVPRequest struct {
	EventID   string            `json:"event_id"`
	FamilyID  string            `json:"family_id"`
	Status    models.RSVPStatus `json:"status"`
	Count     int               `json:"count"`
	KidsCount int               `json:"kids_count"`
}

// SubmitRSVP creates or replaces the family's RSVP for the event.
func (c *Client) SubmitRSVP(ctx context.Context, req RSVPRequest) error {
	return c.do(ctx, http.MethodPost, "/rsvps", nil, req, nil)
}

// RSVPs lists all replies for an event.
func (c *Client) RSVPs(ctx context.Context, eventID string) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	q := url.Values{"event_id": {eventID}}
	if err := c.do(ctx, http.MethodGet, "/rsvps", q, nil, &rsvps); err != nil {
		return nil, err
	}
	return rsvps, nil
}

// ---------------------------------------------------------------------------
// Dishes
// ---------------------------------------------------------------------------

// AddDishRequest creates a dish. A nil BringerID with IsRequested set makes
// it an open request; a bringer makes it a pledge.
type AddDishRequest struct {
	EventID     string   `json:"event_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DietaryTags []string `json:"dietary_tags,omitempty"`
	BringerID   *string  `json:"bringer_id"`
	IsHostDish  bool     `json:"is_host_dish"`
	IsRequested bool     `json:"is_requested"`
}

// AddDish creates a dish (pledge or request) on an event.
func (c *Client) AddDish(ctx context.Context, req AddDishRequest) (*models.Dish, error) {
	var dish models.Dish
	if err := c.do(ctx, http.MethodPost, "/dishes", nil, req, &dish); err != nil {
		return nil, err
	}
	return &dish, nil
}

// Dishes lists the dishes of an event.
func (c *Client) Dishes(ctx context.Context, eventID string) ([]models.Dish, error) {
	var dishes []models.Dish
	q := url.Values{"event_id": {eventID}}
	if err := c.do(ctx, http.MethodGet, "/dishes", q, nil, &dishes); err != nil {
		return nil, err
	}
	return dishes, nil
}

// PledgeDish claims an unclaimed dish for the family.
func (c *Client) PledgeDish(ctx context.Context, dishID, familyID string) error {
	body := map[string]string{"family_id": familyID}
	return c.do(ctx, http.MethodPost, "/dishes/"+dishID+"/pledge", nil, body, nil)
}

// UnpledgeDish releases a previously claimed dish.
func (c *Client) UnpledgeDish(ctx context.Context, dishID string) error {
	return c.do(ctx, http.MethodPost, "/dishes/"+dishID+"/unpledge", nil, nil, nil)
}

// DeleteDish removes a dish from its event.
func (c *Client) DeleteDish(ctx context.Context, dishID string) error {
	return c.do(ctx, http.MethodDelete, "/dishes/"+dishID, nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Swaps
// ---------------------------------------------------------------------------

// CreateSwapRequest opens a dish or host swap. A nil target is an open offer.
type CreateSwapRequest struct {
	EventID            string  `json:"event_id"`
	DishID             *string `json:"dish_id,omitempty"`
	Type               string  `json:"type,omitempty"`
	RequestingFamilyID string  `json:"requesting_family_id"`
	TargetFamilyID     *string `json:"target_family_id"`
}

// SwapEventUpdates lets an accepting host adjust the event on handoff.
type SwapEventUpdates struct {
	Date     string `json:"date"` // RFC 3339
	Location string `json:"location"`
}

// UpdateSwapRequest resolves a pending swap.
type UpdateSwapRequest struct {
	Status         string            `json:"status"`
	TargetFamilyID *string           `json:"target_family_id,omitempty"`
	EventUpdates   *SwapEventUpdates `json:"event_updates,omitempty"`
}

// CreateSwap opens a new swap request.
func (c *Client) CreateSwap(ctx context.Context, req CreateSwapRequest) error {
	return c.do(ctx, http.MethodPost, "/swaps", nil, req, nil)
}

// UpdateSwap approves, rejects, or cancels a pending swap.
func (c *Client) UpdateSwap(ctx context.Context, id string, req UpdateSwapRequest) error {
	return c.do(ctx, http.MethodPatch, "/swaps/"+id, nil, req, nil)
}

// Swaps lists the swap requests of an event.
func (c *Client) Swaps(ctx context.Context, eventID string) ([]models.SwapRequest, error) {
	var swaps []models.SwapRequest
	q := url.Values{"event_id": {eventID}}
	if err := c.do(ctx, http.MethodGet, "/swaps", q, nil, &swaps); err != nil {
		return nil, err
	}
	return swaps, nil
}

// ---------------------------------------------------------------------------
// Households
// ---------------------------------------------------------------------------

// CreateHousehold starts a household owned by the given family.
func (c *Client) CreateHousehold(ctx context.Context, name, familyID string) (*models.Household, error) {
	var hh models.Household
	body := map[string]string{"name": name, "family_id": familyID}
	if err := c.do(ctx, http.MethodPost, "/households", nil, body, &hh); err != nil {
		return nil, err
	}
	return &hh, nil
}

// Household fetches a household with its members populated.
func (c *Client) Household(ctx context.Context, id string) (*models.Household, error) {
	var hh models.Household
	if err := c.do(ctx, http.MethodGet, "/households/"+id, nil, nil, &hh); err != nil {
		return nil, err
	}
	return &hh, nil
}

// JoinHousehold adds the family to an existing household.
func (c *Client) JoinHousehold(ctx context.Context, householdID, familyID string) error {
	body := map[string]string{"household_id": householdID, "family_id": familyID}
	return c.do(ctx, http.MethodPost, "/households/join", nil, body, nil)
}

// AddHouseholdMember invites a family into the household by email.
func (c *Client) AddHouseholdMember(ctx context.Context, householdID, email string) error {
	body := map[string]string{"household_id": householdID, "email": email}
	return c.do(ctx, http.MethodPost, "/households/add-member", nil, body, nil)
}

// RemoveHouseholdMember removes a family from the household.
func (c *Client) RemoveHouseholdMember(ctx context.Context, householdID, familyID string) error {
	body := map[string]string{"household_id": householdID, "family_id": familyID}
	return c.do(ctx, http.MethodPost, "/households/remove-member", nil, body, nil)
}

// HouseholdUpdate carries mutable household fields.
type HouseholdUpdate struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
}

// UpdateHousehold patches a household.
func (c *Client) UpdateHousehold(ctx context.Context, id string, update HouseholdUpdate) (*models.Household, error) {
	var hh models.Household
	if err := c.do(ctx, http.MethodPatch, "/households/"+id, nil, update, &hh); err != nil {
		return nil, err
	}
	return &hh, nil
}

// DeleteHousehold dissolves a household. Any member may do this.
func (c *Client) DeleteHousehold(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/households/"+id, nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Version / health
// ---------------------------------------------------------------------------

// Version reads the backend version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/version", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}
