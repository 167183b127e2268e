package gnss

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/rtkfield/basestation/pkg/coords"
)

// statusFrame is one newline-delimited JSON status message from the
// correction-broadcast service's monitor socket.  The field names are
// the service's, not ours.
type statusFrame struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`

	FixQuality int `json:"fix_quality"`
	Satellites int `json:"satellites"`

	IsFixedMode      bool  `json:"is_fixed_mode"`
	IsSurveyInActive bool  `json:"is_survey_in_active"`
	SurveyInDuration int64 `json:"survey_in_duration"`
	SurveyInValid    bool  `json:"survey_in_valid"`

	// accuracy_mm follows the receiver convention of reporting the
	// survey-in accuracy estimate in millimeters.
	AccuracyMM int64 `json:"accuracy_mm"`

	RTCMTotalMessages   uint64            `json:"rtcm_total_messages"`
	RTCMMessages        map[string]uint64 `json:"rtcm_messages"`
	RTCMLastMessageUnix int64             `json:"rtcm_last_message_unix"`
}

// report converts a wire frame into the normalized Report shape.
func (f statusFrame) report(now time.Time) Report {
	r := Report{
		Time:      now,
		FixedMode: f.IsFixedMode,
		Position: coords.Coordinates{
			Latitude:  f.Latitude,
			Longitude: f.Longitude,
			Altitude:  f.Altitude,
		},
		Fix:        fixFromGGAQuality(f.FixQuality),
		Satellites: f.Satellites,
		SurveyIn: &SurveyInStatus{
			Active:         f.IsSurveyInActive,
			Elapsed:        time.Duration(f.SurveyInDuration) * time.Second,
			AccuracyMeters: float64(f.AccuracyMM) / 1000.0,
			Valid:          f.SurveyInValid,
		},
		RTCM: &RTCMStats{
			TotalMessages: f.RTCMTotalMessages,
			ByType:        f.RTCMMessages,
		},
	}
	if f.RTCMLastMessageUnix > 0 {
		r.RTCM.LastMessage = time.Unix(f.RTCMLastMessageUnix, 0)
	}
	return r
}

// Monitor consumes the correction service's status socket.  It keeps
// a streaming TCP connection up in the background, reconnecting with
// exponential backoff, and serves the most recent frame to Poll.
type Monitor struct {
	l hclog.Logger

	addr        string
	dialTimeout time.Duration

	latest latest

	stopOnce sync.Once
	stop     chan struct{}

	connMutex sync.Mutex
	conn      net.Conn
}

// MonitorOption configures the Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the parent logger for the monitor.
func WithMonitorLogger(l hclog.Logger) MonitorOption {
	return func(m *Monitor) { m.l = l.Named("gnss.monitor") }
}

// WithMonitorAddress sets the address of the status socket.
func WithMonitorAddress(addr string) MonitorOption {
	return func(m *Monitor) { m.addr = addr }
}

// WithMonitorMaxAge bounds how old a frame may be before Poll stops
// vouching for it.
func WithMonitorMaxAge(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.latest.maxAge = d }
}

// NewMonitor configures a Monitor and returns it.  Call Connect to
// start the background reader.
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := new(Monitor)
	m.l = hclog.NewNullLogger()
	m.addr = "localhost:50010"
	m.dialTimeout = time.Second * 5
	m.latest.maxAge = time.Second * 10
	m.stop = make(chan struct{})

	for _, o := range opts {
		o(m)
	}
	return m
}

// Connect starts the background reader.  It returns immediately; the
// reader dials and re-dials until Stop is called.
func (m *Monitor) Connect() {
	go func() {
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = 0
		if err := backoff.Retry(m.connectAndStream, bo); err != nil {
			m.l.Debug("Monitor reader exited", "error", err)
		}
	}()
}

// Stop shuts down the background reader and closes any open
// connection.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.connMutex.Lock()
		if m.conn != nil {
			m.conn.Close()
		}
		m.connMutex.Unlock()
	})
}

// Poll returns the most recent status frame, or ErrNoFreshData when
// the service has gone quiet.
func (m *Monitor) Poll() (Report, error) {
	return m.latest.get()
}

// connectAndStream dials the status socket and consumes frames until
// the connection drops.  It always returns a non-nil error so that
// backoff.Retry keeps it alive, except when Stop has been requested.
func (m *Monitor) connectAndStream() error {
	select {
	case <-m.stop:
		return backoff.Permanent(errStopped)
	default:
	}

	conn, err := net.DialTimeout("tcp", m.addr, m.dialTimeout)
	if err != nil {
		m.l.Debug("Could not reach service monitor socket", "address", m.addr, "error", err)
		return err
	}
	m.l.Info("Connected to service monitor socket", "address", m.addr)

	m.connMutex.Lock()
	m.conn = conn
	m.connMutex.Unlock()
	defer func() {
		m.connMutex.Lock()
		m.conn = nil
		m.connMutex.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var frame statusFrame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			m.l.Warn("Discarding malformed status frame", "error", err)
			continue
		}
		m.latest.set(frame.report(time.Now()))
	}

	select {
	case <-m.stop:
		return backoff.Permanent(errStopped)
	default:
	}

	err = scanner.Err()
	m.l.Warn("Lost connection to service monitor socket", "error", err)
	if err == nil {
		err = errStreamClosed
	}
	return err
}
