package gnss

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestFixFromGGAQuality(t *testing.T) {
	cases := []struct {
		code int
		want FixQuality
	}{
		{0, FixNone},
		{1, FixGPS},
		{2, FixDGPS},
		{4, FixRTKFixed},
		{5, FixRTKFloat},
		{6, FixEstimated},
		{3, FixUnknown},
		{-1, FixUnknown},
		{99, FixUnknown},
	}

	for _, c := range cases {
		if got := fixFromGGAQuality(c.code); got != c.want {
			t.Errorf("fixFromGGAQuality(%d) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestStatusFrameReport(t *testing.T) {
	raw := `{
		"latitude": 44.5,
		"longitude": -123.25,
		"altitude": 71.2,
		"fix_quality": 5,
		"satellites": 12,
		"is_fixed_mode": false,
		"is_survey_in_active": true,
		"survey_in_duration": 90,
		"survey_in_valid": true,
		"accuracy_mm": 35,
		"rtcm_total_messages": 4120,
		"rtcm_messages": {"1005": 60, "1077": 2030, "1087": 2030},
		"rtcm_last_message_unix": 1700000000
	}`

	var frame statusFrame
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	now := time.Now()
	r := frame.report(now)

	if !r.Time.Equal(now) {
		t.Fatalf("report time = %v, want %v", r.Time, now)
	}
	if r.FixedMode {
		t.Fatal("report claims fixed mode, frame said survey-in")
	}
	if r.Position.Latitude != 44.5 || r.Position.Longitude != -123.25 || r.Position.Altitude != 71.2 {
		t.Fatalf("position = %+v", r.Position)
	}
	if r.Fix != FixRTKFloat {
		t.Fatalf("fix = %v, want RTK Float", r.Fix)
	}
	if r.Satellites != 12 {
		t.Fatalf("satellites = %d, want 12", r.Satellites)
	}

	if r.SurveyIn == nil {
		t.Fatal("survey-in status dropped")
	}
	if !r.SurveyIn.Active || !r.SurveyIn.Valid {
		t.Fatalf("survey-in = %+v", r.SurveyIn)
	}
	if r.SurveyIn.Elapsed != 90*time.Second {
		t.Fatalf("survey-in elapsed = %v, want 90s", r.SurveyIn.Elapsed)
	}
	if r.SurveyIn.AccuracyMeters != 0.035 {
		t.Fatalf("survey-in accuracy = %v, want 0.035", r.SurveyIn.AccuracyMeters)
	}

	if r.RTCM == nil {
		t.Fatal("rtcm stats dropped")
	}
	if r.RTCM.TotalMessages != 4120 {
		t.Fatalf("rtcm total = %d, want 4120", r.RTCM.TotalMessages)
	}
	if r.RTCM.ByType["1077"] != 2030 {
		t.Fatalf("rtcm by type = %v", r.RTCM.ByType)
	}
	if r.RTCM.LastMessage.Unix() != 1700000000 {
		t.Fatalf("rtcm last message = %v", r.RTCM.LastMessage)
	}
}

func TestStatusFrameReportZeroLastMessage(t *testing.T) {
	r := statusFrame{}.report(time.Now())
	if !r.RTCM.LastMessage.IsZero() {
		t.Fatalf("last message = %v, want zero time", r.RTCM.LastMessage)
	}
}

func TestHandleLineGGA(t *testing.T) {
	s := NewNMEASource()
	s.handleLine("$GPGGA,120000.00,4430.0000,N,12315.0000,W,4,14,0.8,70.0,M,0.0,M,1.0,0000*5A")

	r, err := s.Poll()
	if err != nil {
		t.Fatalf("Poll() error: %v", err)
	}
	if math.Abs(r.Position.Latitude-44.5) > 1e-9 {
		t.Fatalf("latitude = %v, want 44.5", r.Position.Latitude)
	}
	if math.Abs(r.Position.Longitude+123.25) > 1e-9 {
		t.Fatalf("longitude = %v, want -123.25", r.Position.Longitude)
	}
	if r.Position.Altitude != 70 {
		t.Fatalf("altitude = %v, want 70", r.Position.Altitude)
	}
	if r.Fix != FixRTKFixed {
		t.Fatalf("fix = %v, want RTK Fixed", r.Fix)
	}
	if r.Satellites != 14 {
		t.Fatalf("satellites = %d, want 14", r.Satellites)
	}
	if r.SurveyIn != nil || r.RTCM != nil {
		t.Fatal("bare NMEA feed reported survey-in or rtcm visibility")
	}
}

func TestHandleLineIgnoresNonGGA(t *testing.T) {
	s := NewNMEASource()

	s.handleLine("$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48")
	s.handleLine("garbage without a dollar sign")
	s.handleLine("$GPGGA,truncated")

	if _, err := s.Poll(); !errors.Is(err, ErrNoFreshData) {
		t.Fatalf("Poll() = %v, want ErrNoFreshData", err)
	}
}

func TestLatestExpires(t *testing.T) {
	var l latest
	l.maxAge = time.Second

	l.set(Report{Time: time.Now().Add(-2 * time.Second), Satellites: 9})
	if _, err := l.get(); !errors.Is(err, ErrNoFreshData) {
		t.Fatalf("get() with an expired report = %v, want ErrNoFreshData", err)
	}

	l.set(Report{Time: time.Now(), Satellites: 9})
	r, err := l.get()
	if err != nil {
		t.Fatalf("get() error: %v", err)
	}
	if r.Satellites != 9 {
		t.Fatalf("get() = %+v", r)
	}
}
