package device

import (
	"errors"
	"strings"

	"github.com/mileusna/useragent"
)

// Device types used by pricing multipliers and event records.
const (
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
	TypeDesktop = "desktop"
)

// ErrUnknownDevice is returned when a user agent cannot be classified.
// Unknown devices are not registered as events; accepting them would
// invite false positives from scripted traffic.
var ErrUnknownDevice = errors.New("device: unknown device type")

// Info is the parsed view of a viewer's user agent.
type Info struct {
	// Type is one of mobile, tablet, desktop.
	Type string

	// Device is the hardware name when the UA exposes one (e.g. "iPhone").
	Device  string
	OS      string
	Browser string

	Bot         bool
	EmailClient bool
}

// Known email-client UA markers. Email clients prefetch ad pixels and must
// not count as viewer traffic.
var emailClientMarkers = []string{
	"thunderbird",
	"outlook",
	"postbox",
	"airmail",
	"mailbar",
	"evolution",
	"kmail",
	"lotus-notes",
	"the bat!",
}

// Classify parses a user-agent string into an Info.
// A zero Type with nil error never happens: unknown types yield ErrUnknownDevice.
func Classify(userAgent string) (Info, error) {
	ua := useragent.Parse(userAgent)

	info := Info{
		Device:      ua.Device,
		OS:          ua.OS,
		Browser:     ua.Name,
		Bot:         ua.Bot,
		EmailClient: isEmailClient(userAgent),
	}
	if info.Device == "" {
		info.Device = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}
	if info.Browser == "" {
		info.Browser = "Unknown"
	}

	switch {
	case ua.Tablet:
		info.Type = TypeTablet
	case ua.Mobile:
		info.Type = TypeMobile
	case ua.Desktop:
		info.Type = TypeDesktop
	default:
		if info.Bot || info.EmailClient {
			// Bots carry no meaningful device type; callers reject them
			// before the type matters.
			return info, nil
		}
		return Info{}, ErrUnknownDevice
	}
	return info, nil
}

func isEmailClient(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	for _, marker := range emailClientMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
