package ubx

import (
	"encoding/binary"
	"time"
)

// NavPVTMinSize is the shortest NAV-PVT payload decoded.
const NavPVTMinSize = 84

// Fix types reported in NAV-PVT.
const (
	FixNone          uint8 = 0
	FixDeadReckoning uint8 = 1
	Fix2D            uint8 = 2
	Fix3D            uint8 = 3
	FixGNSSDeadReck  uint8 = 4
	FixTimeOnly      uint8 = 5
)

// NavPVT is the navigation position velocity time solution.
type NavPVT struct {
	ITOW    uint32 // ms
	Year    uint16
	Month   uint8
	Day     uint8
	Hour    uint8
	Min     uint8
	Sec     uint8
	Valid   uint8
	TAcc    uint32 // ns
	Nano    int32  // ns
	FixType uint8
	Flags   uint8
	NumSV   uint8
	Lon     int32  // 1e-7 deg
	Lat     int32  // 1e-7 deg
	Height  int32  // mm above ellipsoid
	HMSL    int32  // mm above mean sea level
	HAcc    uint32 // mm
	VAcc    uint32 // mm
	VelN    int32  // mm/s
	VelE    int32  // mm/s
	VelD    int32  // mm/s
	GSpeed  int32  // mm/s
	Heading int32  // 1e-5 deg
	SAcc    uint32 // mm/s
	HeadAcc uint32 // 1e-5 deg
	PDOP    uint16 // 0.01
}

// DecodeNavPVT decodes a NAV-PVT message.
func DecodeNavPVT(m *Message) (*NavPVT, error) {
	if id := m.ClassID(); id != NavPVTClassID {
		return nil, &UnexpectedMessageError{Want: NavPVTClassID, Got: id}
	}
	p := m.Payload
	if len(p) < NavPVTMinSize {
		return nil, ErrShortPayload
	}
	le := binary.LittleEndian
	return &NavPVT{
		ITOW:    le.Uint32(p[0:]),
		Year:    le.Uint16(p[4:]),
		Month:   p[6],
		Day:     p[7],
		Hour:    p[8],
		Min:     p[9],
		Sec:     p[10],
		Valid:   p[11],
		TAcc:    le.Uint32(p[12:]),
		Nano:    int32(le.Uint32(p[16:])),
		FixType: p[20],
		Flags:   p[21],
		NumSV:   p[23],
		Lon:     int32(le.Uint32(p[24:])),
		Lat:     int32(le.Uint32(p[28:])),
		Height:  int32(le.Uint32(p[32:])),
		HMSL:    int32(le.Uint32(p[36:])),
		HAcc:    le.Uint32(p[40:]),
		VAcc:    le.Uint32(p[44:]),
		VelN:    int32(le.Uint32(p[48:])),
		VelE:    int32(le.Uint32(p[52:])),
		VelD:    int32(le.Uint32(p[56:])),
		GSpeed:  int32(le.Uint32(p[60:])),
		Heading: int32(le.Uint32(p[64:])),
		SAcc:    le.Uint32(p[68:]),
		HeadAcc: le.Uint32(p[72:]),
		PDOP:    le.Uint16(p[76:]),
	}, nil
}

// Latitude in degrees.
func (n *NavPVT) Latitude() float64 { return float64(n.Lat) * 1e-7 }

// Longitude in degrees.
func (n *NavPVT) Longitude() float64 { return float64(n.Lon) * 1e-7 }

// HasFix reports a 2D or 3D fix.
func (n *NavPVT) HasFix() bool {
	return n.FixType == Fix2D || n.FixType == Fix3D || n.FixType == FixGNSSDeadReck
}

// Time returns the UTC time of the solution. Validity flags are not checked.
func (n *NavPVT) Time() time.Time {
	return time.Date(int(n.Year), time.Month(n.Month), int(n.Day),
		int(n.Hour), int(n.Min), int(n.Sec), 0, time.UTC).
		Add(time.Duration(n.Nano))
}
