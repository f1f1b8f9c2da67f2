package bridge

import (
	"sync"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/Ffreasy/crazyflie-firmware/pkg/ubx"
)

// Default topics relative to the bridge prefix.
const (
	TopicGPSFix  = "gps/fix"
	TopicConsole = "console"
)

// NAV-PVT valid flags.
const (
	validDate = 0x01
	validTime = 0x02
)

// FixStruct converts a NAV-PVT solution into a protobuf Struct.
// The time field is present only when date and time are valid.
func FixStruct(pvt *ubx.NavPVT) *structpb.Struct {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"fix_type":    numberValue(float64(pvt.FixType)),
		"has_fix":     {Kind: &structpb.Value_BoolValue{BoolValue: pvt.HasFix()}},
		"num_sv":      numberValue(float64(pvt.NumSV)),
		"lat":         numberValue(pvt.Latitude()),
		"lon":         numberValue(pvt.Longitude()),
		"hmsl_m":      numberValue(float64(pvt.HMSL) / 1e3),
		"hacc_m":      numberValue(float64(pvt.HAcc) / 1e3),
		"gspeed_mps":  numberValue(float64(pvt.GSpeed) / 1e3),
		"heading_deg": numberValue(float64(pvt.Heading) * 1e-5),
	}}
	if pvt.Valid&(validDate|validTime) == validDate|validTime {
		if ts, err := ptypes.TimestampProto(pvt.Time()); err == nil {
			s.Fields["time"] = &structpb.Value{
				Kind: &structpb.Value_StringValue{StringValue: ptypes.TimestampString(ts)},
			}
		}
	}
	return s
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

// GPSTelemetry publishes every NAV-PVT solution as an encoded FixStruct.
// HandleMessage fits uart.GPSConsumer.OnMessage.
type GPSTelemetry struct {
	Publisher Publisher
	Topic     string
}

// HandleMessage publishes NAV-PVT messages and ignores others.
func (t *GPSTelemetry) HandleMessage(m *ubx.Message) {
	if m.ClassID() != ubx.NavPVTClassID {
		return
	}
	pvt, err := ubx.DecodeNavPVT(m)
	if err != nil {
		glog.V(2).Infof("gps: %v", err)
		return
	}
	data, err := proto.Marshal(FixStruct(pvt))
	if err != nil {
		glog.Errorf("gps: encode fix: %v", err)
		return
	}
	topic := t.Topic
	if topic == "" {
		topic = TopicGPSFix
	}
	if err = t.Publisher.Publish(topic, data); err != nil {
		glog.Warningf("gps: publish fix: %v", err)
	}
}

// ConsoleMaxLine is the longest console line published as one message.
const ConsoleMaxLine = 128

// ConsoleSink collects console bytes into lines and publishes each line.
type ConsoleSink struct {
	Publisher Publisher
	Topic     string

	lock sync.Mutex
	line []byte
}

// Write implements io.Writer.
func (s *ConsoleSink) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for n, c := range p {
		s.line = append(s.line, c)
		if c != '\n' && len(s.line) < ConsoleMaxLine {
			continue
		}
		line := s.line
		s.line = nil
		if err := s.Publisher.Publish(s.topic(), line); err != nil {
			return n + 1, err
		}
	}
	return len(p), nil
}

// Flush publishes a pending partial line.
func (s *ConsoleSink) Flush() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.line) == 0 {
		return nil
	}
	line := s.line
	s.line = nil
	return s.Publisher.Publish(s.topic(), line)
}

func (s *ConsoleSink) topic() string {
	if s.Topic == "" {
		return TopicConsole
	}
	return s.Topic
}
