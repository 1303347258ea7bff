package settings

import (
	"os"
	"time"
)

type (
	// RequestLine is responsible for the request line limits
	// MaxSize is a maximal length of the whole request line, CRLF excluded
	RequestLine struct {
		MaxSize uint32 `json:"max_size"`
	}

	// Space sizes a scratch buffer
	// Initial value is the pre-allocated space
	// Maximal value is the hard cap past which appends fail
	Space struct {
		Initial int `json:"initial"`
		Maximal int `json:"maximal"`
	}

	// Headers is responsible for the header section limits
	// MaxNumber is a maximal number of header lines per request
	// MaxLineSize is a maximal length of a single header line, zero disables
	//         the per-line check
	// KeySpace and ValueSpace are filled with defaults but not read by the
	//         parser, whose only scratch arena is sized from RequestLine.MaxSize
	Headers struct {
		MaxNumber   uint16 `json:"max_number"`
		MaxLineSize uint32 `json:"max_line_size"`
		KeySpace    Space  `json:"key_space"`
		ValueSpace  Space  `json:"value_space"`
	}

	// Body is responsible for the body limits
	// MaxSize caps the total body length, identity and chunked alike; zero
	//         disables the check
	Body struct {
		MaxSize uint64 `json:"max_size"`
	}

	// Spill configures buffer migration to disk
	// Threshold is the logical size past which a buffer leaves memory mode
	// TempDir hosts the spill files; must exist and be writable
	Spill struct {
		Threshold int    `json:"threshold"`
		TempDir   string `json:"temp_dir"`
	}

	// TCP is responsible for the transport
	// ReadBufferSize is how many bytes are read from a socket at most
	// ReadTimeout bounds a single blocking read
	TCP struct {
		ReadBufferSize int           `json:"read_buffer_size"`
		ReadTimeout    time.Duration `json:"read_timeout"`
	}

	// Session configures registry persistence
	// FilePath is where the registry dump lives
	Session struct {
		FilePath string `json:"file_path"`
	}
)

type Settings struct {
	RequestLine RequestLine `json:"request_line"`
	Headers     Headers     `json:"headers"`
	Body        Body        `json:"body"`
	Spill       Spill       `json:"spill"`
	TCP         TCP         `json:"tcp"`
	Session     Session     `json:"session"`
}

func Default() Settings {
	return Settings{
		RequestLine: RequestLine{
			MaxSize: 8192,
		},
		Headers: Headers{
			MaxNumber:   100,
			MaxLineSize: 8192,
			KeySpace: Space{
				Initial: 64,
				Maximal: 1024,
			},
			ValueSpace: Space{
				Initial: 512,
				Maximal: 16384,
			},
		},
		Body: Body{
			// zero keeps the body unbounded until a config says otherwise
			MaxSize: 0,
		},
		Spill: Spill{
			Threshold: 1 << 20,
			TempDir:   os.TempDir(),
		},
		TCP: TCP{
			ReadBufferSize: 2048,
			ReadTimeout:    90 * time.Second,
		},
		Session: Session{
			FilePath: "sessions.bin",
		},
	}
}

// Fill takes some settings and fills them with default values everywhere
// where they are not filled. Zero-means-disabled fields (Headers.MaxLineSize,
// Body.MaxSize) are left untouched
func Fill(original Settings) (modified Settings) {
	defaultSettings := Default()

	original.RequestLine.MaxSize = customOrDefault(
		original.RequestLine.MaxSize, defaultSettings.RequestLine.MaxSize,
	)
	original.Headers.MaxNumber = customOrDefault(
		original.Headers.MaxNumber, defaultSettings.Headers.MaxNumber,
	)
	original.Headers.KeySpace.Initial = customOrDefault(
		original.Headers.KeySpace.Initial, defaultSettings.Headers.KeySpace.Initial,
	)
	original.Headers.KeySpace.Maximal = customOrDefault(
		original.Headers.KeySpace.Maximal, defaultSettings.Headers.KeySpace.Maximal,
	)
	original.Headers.ValueSpace.Initial = customOrDefault(
		original.Headers.ValueSpace.Initial, defaultSettings.Headers.ValueSpace.Initial,
	)
	original.Headers.ValueSpace.Maximal = customOrDefault(
		original.Headers.ValueSpace.Maximal, defaultSettings.Headers.ValueSpace.Maximal,
	)
	original.Spill.Threshold = customOrDefault(
		original.Spill.Threshold, defaultSettings.Spill.Threshold,
	)
	original.Spill.TempDir = customOrDefault(
		original.Spill.TempDir, defaultSettings.Spill.TempDir,
	)
	original.TCP.ReadBufferSize = customOrDefault(
		original.TCP.ReadBufferSize, defaultSettings.TCP.ReadBufferSize,
	)
	original.TCP.ReadTimeout = customOrDefault(
		original.TCP.ReadTimeout, defaultSettings.TCP.ReadTimeout,
	)
	original.Session.FilePath = customOrDefault(
		original.Session.FilePath, defaultSettings.Session.FilePath,
	)

	return original
}

func customOrDefault[T comparable](custom, defaultVal T) T {
	var zero T
	if custom == zero {
		return defaultVal
	}

	return custom
}
