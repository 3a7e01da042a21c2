package device

import (
	"errors"
	"testing"
)

const (
	uaChromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaIPhone        = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaIPad          = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	uaGooglebot     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	uaThunderbird   = "Mozilla/5.0 (X11; Linux x86_64; rv:102.0) Gecko/20100101 Thunderbird/102.13.0"
)

func TestClassify_DeviceTypes(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{uaChromeDesktop, TypeDesktop},
		{uaIPhone, TypeMobile},
		{uaIPad, TypeTablet},
	}
	for _, tc := range cases {
		info, err := Classify(tc.ua)
		if err != nil {
			t.Fatalf("Classify(%q): %v", tc.ua, err)
		}
		if info.Type != tc.want {
			t.Fatalf("Classify(%q): expected %s, got %s", tc.ua, tc.want, info.Type)
		}
		if info.Bot {
			t.Fatalf("Classify(%q): unexpected bot flag", tc.ua)
		}
	}
}

func TestClassify_Bot(t *testing.T) {
	info, err := Classify(uaGooglebot)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !info.Bot {
		t.Fatalf("expected bot flag for googlebot")
	}
}

func TestClassify_EmailClient(t *testing.T) {
	info, err := Classify(uaThunderbird)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !info.EmailClient {
		t.Fatalf("expected email client flag for thunderbird")
	}
}

func TestClassify_UnknownDevice(t *testing.T) {
	if _, err := Classify("totally-custom-agent/1.0"); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected ErrUnknownDevice, got %v", err)
	}
}

func TestClassify_PopulatesBrowserAndOS(t *testing.T) {
	info, err := Classify(uaChromeDesktop)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if info.Browser == "Unknown" || info.OS == "Unknown" {
		t.Fatalf("expected browser and os to parse, got %q / %q", info.Browser, info.OS)
	}
}
