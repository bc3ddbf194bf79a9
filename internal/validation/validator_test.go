// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package validation

import (
	"strings"
	"testing"

	"github.com/nsa-x/console/internal/models"
)

func TestValidateDecisionRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       models.DecisionRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid escalation",
			req: models.DecisionRequest{
				Action:        models.ActionEscalate,
				Justification: "Confirmed external C2 callback pattern",
			},
		},
		{
			name: "valid watch with follow-up",
			req: models.DecisionRequest{
				Action:           models.ActionWatch,
				Justification:    "Needs another look tomorrow",
				FollowUpRequired: true,
				FollowUpHours:    24,
			},
		},
		{
			name: "justification too short",
			req: models.DecisionRequest{
				Action:        models.ActionDismiss,
				Justification: "benign",
			},
			wantErr:   true,
			wantField: "Justification",
		},
		{
			name: "missing justification",
			req: models.DecisionRequest{
				Action: models.ActionDismiss,
			},
			wantErr:   true,
			wantField: "Justification",
		},
		{
			name: "unknown action",
			req: models.DecisionRequest{
				Action:        models.DecisionAction("PURGE"),
				Justification: "long enough justification",
			},
			wantErr:   true,
			wantField: "Action",
		},
		{
			name: "follow-up hours out of range",
			req: models.DecisionRequest{
				Action:        models.ActionWatch,
				Justification: "long enough justification",
				FollowUpHours: 10000,
			},
			wantErr:   true,
			wantField: "FollowUpHours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if !tt.wantErr {
				if verr != nil {
					t.Fatalf("unexpected validation error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error, got nil")
			}
			found := false
			for _, f := range verr.Fields() {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected failure on field %q, got %v", tt.wantField, verr.Fields())
			}
		})
	}
}

func TestJustificationMessageNamesLength(t *testing.T) {
	req := models.DecisionRequest{Action: models.ActionDismiss, Justification: "short"}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(verr.Error(), "at least 10 characters") {
		t.Errorf("error message should mention minimum length, got %q", verr.Error())
	}
}
