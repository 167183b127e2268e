package gnss

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"go.bug.st/serial"

	"github.com/rtkfield/basestation/pkg/coords"
)

var (
	errStopped      = errors.New("source stopped")
	errStreamClosed = errors.New("stream closed by peer")
)

// fixFromGGAQuality maps the GGA fix quality indicator onto the
// dashboard's labels.
func fixFromGGAQuality(q int) FixQuality {
	switch q {
	case 0:
		return FixNone
	case 1:
		return FixGPS
	case 2:
		return FixDGPS
	case 4:
		return FixRTKFixed
	case 5:
		return FixRTKFloat
	case 6:
		return FixEstimated
	default:
		return FixUnknown
	}
}

// Dialer opens the byte stream an NMEASource reads from.
type Dialer func() (io.ReadCloser, error)

// TCPDialer dials a receiver that serves NMEA over TCP.
func TCPDialer(addr string, timeout time.Duration) Dialer {
	return func() (io.ReadCloser, error) {
		return net.DialTimeout("tcp", addr, timeout)
	}
}

// SerialDialer opens a receiver attached to a local serial port.
func SerialDialer(port string, baud int) Dialer {
	return func() (io.ReadCloser, error) {
		return serial.Open(port, &serial.Mode{BaudRate: baud})
	}
}

// NMEASource reads a receiver's NMEA feed directly.  It only sees
// what the receiver says about itself, so reports carry position and
// fix quality but no survey-in or RTCM visibility.
type NMEASource struct {
	l hclog.Logger

	dial Dialer

	latest latest

	stopOnce sync.Once
	stop     chan struct{}

	streamMutex sync.Mutex
	stream      io.ReadCloser
}

// NMEAOption configures the NMEASource.
type NMEAOption func(*NMEASource)

// WithNMEALogger sets the parent logger for the source.
func WithNMEALogger(l hclog.Logger) NMEAOption {
	return func(s *NMEASource) { s.l = l.Named("gnss.nmea") }
}

// WithNMEADialer sets how the source reaches the receiver.
func WithNMEADialer(d Dialer) NMEAOption {
	return func(s *NMEASource) { s.dial = d }
}

// WithNMEAMaxAge bounds how old a sentence may be before Poll stops
// vouching for it.
func WithNMEAMaxAge(d time.Duration) NMEAOption {
	return func(s *NMEASource) { s.latest.maxAge = d }
}

// NewNMEASource configures an NMEASource and returns it.  Call
// Connect to start the background reader.
func NewNMEASource(opts ...NMEAOption) *NMEASource {
	s := new(NMEASource)
	s.l = hclog.NewNullLogger()
	s.latest.maxAge = time.Second * 10
	s.stop = make(chan struct{})

	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect starts the background reader.  It returns immediately; the
// reader dials and re-dials until Stop is called.
func (s *NMEASource) Connect() {
	go func() {
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = 0
		if err := backoff.Retry(s.connectAndStream, bo); err != nil {
			s.l.Debug("NMEA reader exited", "error", err)
		}
	}()
}

// Stop shuts down the background reader and closes any open stream.
func (s *NMEASource) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.streamMutex.Lock()
		if s.stream != nil {
			s.stream.Close()
		}
		s.streamMutex.Unlock()
	})
}

// Poll returns the most recent receiver report, or ErrNoFreshData
// when the feed has gone quiet.
func (s *NMEASource) Poll() (Report, error) {
	return s.latest.get()
}

func (s *NMEASource) connectAndStream() error {
	select {
	case <-s.stop:
		return backoff.Permanent(errStopped)
	default:
	}

	stream, err := s.dial()
	if err != nil {
		s.l.Debug("Could not reach receiver", "error", err)
		return err
	}
	s.l.Info("Connected to receiver NMEA feed")

	s.streamMutex.Lock()
	s.stream = stream
	s.streamMutex.Unlock()
	defer func() {
		s.streamMutex.Lock()
		s.stream = nil
		s.streamMutex.Unlock()
		stream.Close()
	}()

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		s.handleLine(scanner.Text())
	}

	select {
	case <-s.stop:
		return backoff.Permanent(errStopped)
	default:
	}

	err = scanner.Err()
	s.l.Warn("Lost receiver NMEA feed", "error", err)
	if err == nil {
		err = errStreamClosed
	}
	return err
}

// handleLine relabels a single NMEA sentence.  Only GGA carries the
// fields the dashboard shows; everything else is ignored.
func (s *NMEASource) handleLine(line string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// Receivers emit partial sentences around power events;
		// not worth logging above trace.
		s.l.Trace("Unparseable sentence", "error", err)
		return
	}

	gga, ok := sentence.(nmea.GGA)
	if !ok {
		return
	}

	quality := ggaQualityCode(gga.FixQuality)
	s.latest.set(Report{
		Time: time.Now(),
		Position: coords.Coordinates{
			Latitude:  gga.Latitude,
			Longitude: gga.Longitude,
			Altitude:  gga.Altitude,
		},
		Fix:        fixFromGGAQuality(quality),
		Satellites: int(gga.NumSatellites),
	})
}

// ggaQualityCode turns the library's quality string back into the
// numeric indicator from the sentence.
func ggaQualityCode(q string) int {
	switch q {
	case nmea.Invalid:
		return 0
	case nmea.GPS:
		return 1
	case nmea.DGPS:
		return 2
	case nmea.PPS:
		return 3
	case nmea.RTK:
		return 4
	case nmea.FRTK:
		return 5
	case nmea.EST:
		return 6
	default:
		return -1
	}
}
