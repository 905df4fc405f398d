package sfx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// resampleQuality is passed to beep.Resample when an asset's rate differs
// from the speaker's.
const resampleQuality = 4

// LoadLibrary decodes files (key -> file name under dir) and adds them to
// player. Files that fail to load are logged and skipped. It returns the
// number of sounds loaded.
func LoadLibrary(player *BeepPlayer, dir string, files map[string]string) int {
	loaded := 0
	for key, name := range files {
		path := filepath.Join(dir, name)
		buffer, err := decodeFile(path, player.Format())
		if err != nil {
			slog.Warn("LoadLibrary: failed to load sound", "key", key, "path", path, "error", err)
			continue
		}
		player.Add(key, buffer)
		loaded++
		slog.Debug("LoadLibrary: loaded sound", "key", key, "path", path, "samples", buffer.Len())
	}
	return loaded
}

func decodeFile(path string, target beep.Format) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if format.SampleRate != target.SampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, target.SampleRate, streamer)
	}

	buffer := beep.NewBuffer(target)
	buffer.Append(source)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return buffer, nil
}
