package library

import (
	"os"
	"time"

	"github.com/gopxl/beep/v2/mp3"
)

// ProbeDuration decodes an MP3 file's header far enough to report its
// length. Decoding is pure Go, so this works in every build.
func ProbeDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
