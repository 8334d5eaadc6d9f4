package fetcher

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"space-video-pipeline/types"
)

// Role tells the fetcher how strict to be about failures. Audio transfers
// degrade to synthesized silence; anything else fails the caller.
type Role string

const (
	RoleAudio Role = "audio"
	RoleMedia Role = "media"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// Silent fallback format: 1 second, mono, 16-bit PCM, 44.1kHz.
const (
	silenceSampleRate = 44100
	silenceSeconds    = 1
)

// Fetcher downloads remote URLs or copies local paths to a destination file.
type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

// New creates a Fetcher with a bounded transfer timeout.
func New(log *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

// Fetch transfers locator to dest. For RoleAudio any failure is absorbed by
// writing a 1-second silent WAV at dest; degraded reports that substitution.
// For every other role a failure surfaces as *types.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, locator, dest string, role Role) (degraded bool, err error) {
	if err := f.transfer(ctx, locator, dest); err != nil {
		if role == RoleAudio {
			if werr := writeSilentWAV(dest); werr != nil {
				return false, &types.FetchError{Locator: locator, Err: werr}
			}
			f.log.Warn("audio fetch failed, using silent fallback", "locator", locator, "err", err)
			return true, nil
		}
		return false, &types.FetchError{Locator: locator, Err: err}
	}
	return false, nil
}

func (f *Fetcher) transfer(ctx context.Context, locator, dest string) error {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return f.download(ctx, locator, dest)
	}
	return copyLocal(locator, dest)
}

func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	// Some media hosts reject unknown clients.
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Referer", "https://pixabay.com/")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

func copyLocal(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeSilentWAV emits a minimal RIFF/PCM file full of zero samples.
func writeSilentWAV(dest string) error {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := silenceSampleRate * silenceSeconds * channels * bitsPerSample / 8

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, 0, 44)
	header = append(header, []byte("RIFF")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+dataLen))
	header = append(header, []byte("WAVE")...)
	header = append(header, []byte("fmt ")...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, channels)
	header = binary.LittleEndian.AppendUint32(header, silenceSampleRate)
	header = binary.LittleEndian.AppendUint32(header, silenceSampleRate*channels*bitsPerSample/8)
	header = binary.LittleEndian.AppendUint16(header, channels*bitsPerSample/8)
	header = binary.LittleEndian.AppendUint16(header, bitsPerSample)
	header = append(header, []byte("data")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataLen))

	if _, err := f.Write(header); err != nil {
		return err
	}
	if _, err := f.Write(make([]byte, dataLen)); err != nil {
		return err
	}
	return nil
}
