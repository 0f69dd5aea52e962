/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

type createScheduleRequest struct {
	UserID   string `json:"userId"`
	Repo     string `json:"repo"`
	Type     string `json:"type"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Day      string `json:"day"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// handleCreateSchedule registers a posting schedule. The caller speaks
// local wall-clock time plus an IANA zone; storage speaks UTC, so the
// hour (and for weekly schedules the day) is normalized here.
func (a *API) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.UserID == "" {
		respondError(ctx, w, apperror.Validation("userId", "userId is required"))
		return
	}
	if req.Repo == "" {
		respondError(ctx, w, apperror.Validation("repo", "repo is required"))
		return
	}
	cadence := store.Cadence(req.Type)
	if !cadence.Valid() {
		respondError(ctx, w, apperror.Validation("type", "type must be daily or weekly"))
		return
	}

	user, err := a.store.GetUser(ctx, req.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	utcHour, utcWeekday, err := normalizePostTime(req.Time, req.Timezone, req.Day, cadence, a.now())
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	schedule := store.Schedule{
		ID:          xid.New().String(),
		UserID:      req.UserID,
		Username:    user.Profile.DisplayName,
		Repo:        req.Repo,
		Cadence:     cadence,
		PostUTCHour: utcHour,
		Weekday:     utcWeekday,
		CreatedAt:   a.now(),
	}
	if err := a.store.CreateSchedule(ctx, &schedule); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message":    "Schedule created successfully",
		"scheduleId": schedule.ID,
	})
}

// normalizePostTime converts a local "HH:MM" plus IANA zone into the UTC
// hour the batch runs at, and for weekly cadence the UTC weekday. The
// conversion is anchored at the next occurrence of the requested time so
// a zone's current offset applies.
func normalizePostTime(hhmm, tz, day string, cadence store.Cadence, now time.Time) (int, string, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, "", apperror.Validation("time", "time must be HH:MM")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, "", apperror.Validation("timezone", "timezone must be a valid IANA zone")
	}

	local := now.In(loc)
	anchor := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)

	if cadence == store.CadenceDaily {
		if day != "" {
			return 0, "", apperror.Validation("day", "daily schedules must not carry a day")
		}
		return anchor.UTC().Hour(), "", nil
	}

	wd, ok := weekdays[strings.ToLower(day)]
	if !ok {
		return 0, "", apperror.Validation("day", "weekly schedules require a valid day")
	}
	// Advance to the requested local weekday before converting, so a
	// conversion that crosses midnight lands on the right UTC day.
	anchor = anchor.AddDate(0, 0, (int(wd)-int(anchor.Weekday())+7)%7)
	utc := anchor.UTC()
	return utc.Hour(), strings.ToLower(utc.Weekday().String()), nil
}

// handleDeleteSchedule removes one schedule from the user's list.
func (a *API) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("userId")
	id := r.URL.Query().Get("id")
	if userID == "" || id == "" {
		respondError(ctx, w, apperror.Validation("id", "userId and id are required"))
		return
	}
	if err := a.store.DeleteSchedule(ctx, userID, id); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"message": "Schedule deleted successfully",
	})
}
