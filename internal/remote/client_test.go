package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seatq/seatq/internal/models"
)

func testChart() models.Context {
	return models.Context{Group: "hall-a", Day: "2026-03-14", Timeslot: "18:00"}
}

func TestReserveSeatsRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(OpResponse{Success: true, Message: "reserved"})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key")
	resp, err := c.ReserveSeats(context.Background(), testChart(), []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !resp.Success || resp.Message != "reserved" {
		t.Errorf("response: %+v", resp)
	}
	if gotPath != "/v1/charts/hall-a/2026-03-14/18:00/reserve" {
		t.Errorf("path: %q", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("auth: %q", gotAuth)
	}
	ids, _ := gotBody["seat_ids"].([]any)
	if len(ids) != 2 || ids[0] != "A1" {
		t.Errorf("body: %v", gotBody)
	}
}

func TestWalkInCarriesCountAndConsecutive(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(OpResponse{Success: true, SeatIDs: []string{"B1", "B2"}})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	resp, err := c.AssignWalkIn(context.Background(), testChart(), 2, true)
	if err != nil {
		t.Fatalf("walkin: %v", err)
	}
	if gotBody["count"] != float64(2) || gotBody["consecutive"] != true {
		t.Errorf("body: %v", gotBody)
	}
	if len(resp.SeatIDs) != 2 {
		t.Errorf("seat ids: %v", resp.SeatIDs)
	}
}

func TestGetSeatData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: %s", r.Method)
		}
		json.NewEncoder(w).Encode(SeatDataResponse{
			Success: true,
			SeatMap: map[string]*models.SeatRecord{
				"A1": {ID: "A1", ReservedBy: "ana"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	resp, err := c.GetSeatData(context.Background(), testChart())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.SeatMap["A1"].ReservedBy != "ana" {
		t.Errorf("seat map: %+v", resp.SeatMap)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]string{"code": "denied", "message": "nope"})
		}))
		c := New(srv.URL, "bad")
		_, err := c.HealthCheck(context.Background())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
		srv.Close()
	}
}

func TestServerErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"code": "seat_taken", "message": "A1 already reserved"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ReserveSeats(context.Background(), testChart(), []string{"A1"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type: %T %v", err, err)
	}
	if apiErr.Code != "seat_taken" {
		t.Errorf("code: %q", apiErr.Code)
	}
}

func TestNoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if _, err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
}
