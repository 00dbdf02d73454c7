package validator

import (
	"testing"
	"time"

	"attendance/dto"
	apperrors "attendance/errors"
)

func floatPtr(v float64) *float64 { return &v }

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2026-03-10T01:00:00Z", want: want},
		{in: "2026-03-10T01:00:00.000Z", want: want},
		{in: "2026-03-10T08:00:00+07:00", want: want},
		{in: "2026-03-10T01:00:00", want: want},
		{in: "2026-03-10T01:00", want: want},
		{in: " 2026-03-10T01:00:00Z ", want: want},
		{in: "2026-03-10", wantErr: true},
		{in: "yesterday", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateCheckIn(t *testing.T) {
	tests := []struct {
		name string
		req  dto.CheckInRequest
		code apperrors.ErrorCode
	}{
		{
			name: "valid",
			req:  dto.CheckInRequest{FirstName: "Sokha", LastName: "Chan", CheckInTime: "2026-03-10T01:00:00Z"},
		},
		{
			name: "blank first name",
			req:  dto.CheckInRequest{FirstName: "  ", LastName: "Chan", CheckInTime: "2026-03-10T01:00:00Z"},
			code: apperrors.ErrCodeRequiredField,
		},
		{
			name: "bad time",
			req:  dto.CheckInRequest{FirstName: "Sokha", LastName: "Chan", CheckInTime: "08:00"},
			code: apperrors.ErrCodeInvalidFormat,
		},
		{
			name: "latitude without longitude",
			req:  dto.CheckInRequest{FirstName: "Sokha", LastName: "Chan", CheckInTime: "2026-03-10T01:00:00Z", Latitude: floatPtr(11.5)},
			code: apperrors.ErrCodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ValidateCheckIn(&tt.req)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ValidateCheckIn: %v", err)
				}
				if cmd.FirstName != "Sokha" || cmd.Position != nil {
					t.Errorf("cmd = %+v", cmd)
				}
				return
			}
			if !apperrors.HasCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidateCheckOutPosition(t *testing.T) {
	req := dto.CheckOutRequest{
		FirstName:    "Sokha",
		LastName:     "Chan",
		CheckOutTime: "2026-03-10T05:00:00Z",
		Latitude:     floatPtr(11.547639),
		Longitude:    floatPtr(104.923083),
		Accuracy:     floatPtr(150),
	}
	cmd, err := ValidateCheckOut(&req)
	if err != nil {
		t.Fatalf("ValidateCheckOut: %v", err)
	}
	if cmd.Position == nil || cmd.Position.AccuracyMeters != 150 || cmd.Position.Latitude != 11.547639 {
		t.Errorf("Position = %+v", cmd.Position)
	}
}

func TestValidateStatusQuery(t *testing.T) {
	id, err := ValidateStatusQuery(&dto.StatusQuery{FirstName: "Sokha", LastName: "Chan"}, "2026-03-10")
	if err != nil {
		t.Fatalf("ValidateStatusQuery: %v", err)
	}
	if id.Date != "2026-03-10" {
		t.Errorf("Date = %q, want today", id.Date)
	}

	_, err = ValidateStatusQuery(&dto.StatusQuery{FirstName: "Sokha", LastName: "Chan", Date: "10/03/2026"}, "2026-03-10")
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestRegisterBindings(t *testing.T) {
	if err := RegisterBindings(); err != nil {
		t.Fatalf("RegisterBindings: %v", err)
	}
}
