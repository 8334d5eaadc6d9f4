package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"space-video-pipeline/config"
	"space-video-pipeline/types"
)

// ClipDuration decides how long each clip stays on screen: either a fixed
// seconds-per-clip value, or the total audio duration divided evenly across
// all clips.
type ClipDuration struct {
	fixed      float64
	total      float64
	distribute bool
}

// FixedSeconds shows every clip for the same fixed duration.
func FixedSeconds(seconds float64) ClipDuration {
	return ClipDuration{fixed: seconds}
}

// Distribute divides totalSeconds of audio evenly across the clip list.
func Distribute(totalSeconds float64) ClipDuration {
	return ClipDuration{total: totalSeconds, distribute: true}
}

// PerClip resolves the policy for n clips. An empty clip list is rejected
// rather than divided into.
func (d ClipDuration) PerClip(n int) (float64, error) {
	if n <= 0 {
		return 0, &types.InvalidInputError{Reason: "no media clips to assemble"}
	}
	if d.distribute {
		if d.total <= 0 {
			return 0, &types.InvalidInputError{Reason: "audio duration must be positive"}
		}
		return d.total / float64(n), nil
	}
	if d.fixed <= 0 {
		return 0, &types.InvalidInputError{Reason: "clip duration must be positive"}
	}
	return d.fixed, nil
}

// Assembler muxes an ordered list of local image/video files plus one audio
// file into a single mp4, using ffmpeg.
type Assembler struct {
	cfg config.VideoConfig
	log *slog.Logger
}

// New builds an assembler with the configured resolution and frame rate.
func New(cfg config.VideoConfig, log *slog.Logger) *Assembler {
	if cfg.Width <= 0 {
		cfg.Width = 1920
	}
	if cfg.Height <= 0 {
		cfg.Height = 1080
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 24
	}
	return &Assembler{cfg: cfg, log: log}
}

// Assemble renders mediaPaths in order, binds audioPath to the concatenated
// timeline and writes final_video.mp4 under workDir. Clip order is exactly
// the input order. Any decode failure is an *types.AssemblyError and fatal.
func (a *Assembler) Assemble(ctx context.Context, mediaPaths []string, audioPath string, policy ClipDuration, workDir string) (string, error) {
	perClip, err := policy.PerClip(len(mediaPaths))
	if err != nil {
		return "", err
	}

	a.log.Info("assembling video", "clips", len(mediaPaths), "seconds_per_clip", perClip)

	segments := make([]string, 0, len(mediaPaths))
	for i, path := range mediaPaths {
		segment := filepath.Join(workDir, fmt.Sprintf("segment_%03d.mp4", i))
		if err := a.renderSegment(ctx, path, segment, perClip); err != nil {
			return "", &types.AssemblyError{Step: fmt.Sprintf("clip %d", i), Err: err}
		}
		segments = append(segments, segment)
	}

	silent := filepath.Join(workDir, "visuals_raw.mp4")
	if err := a.concatSegments(ctx, segments, silent, workDir); err != nil {
		return "", &types.AssemblyError{Step: "concat", Err: err}
	}

	final := filepath.Join(workDir, "final_video.mp4")
	if err := a.muxAudio(ctx, silent, audioPath, final); err != nil {
		return "", &types.AssemblyError{Step: "mux", Err: err}
	}

	a.log.Info("video assembled", "file", final)
	return final, nil
}

// renderSegment turns one still image or video clip into a fixed-duration,
// uniformly scaled segment.
func (a *Assembler) renderSegment(ctx context.Context, src, dest string, seconds float64) error {
	scale := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		a.cfg.Width, a.cfg.Height, a.cfg.Width, a.cfg.Height,
	)

	args := []string{"-y"}
	if isVideo(src) {
		args = append(args, "-i", src)
	} else {
		args = append(args, "-loop", "1", "-i", src)
	}
	args = append(args,
		"-t", fmt.Sprintf("%.3f", seconds),
		"-vf", scale,
		"-r", fmt.Sprint(a.cfg.FPS),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-an",
		dest,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg segment %s: %w", filepath.Base(src), err)
	}
	return nil
}

func (a *Assembler) concatSegments(ctx context.Context, segments []string, dest, workDir string) error {
	listFile := filepath.Join(workDir, "concat_list.txt")
	if err := os.WriteFile(listFile, []byte(buildConcatList(segments)), 0644); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		dest,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

func (a *Assembler) muxAudio(ctx context.Context, videoFile, audioFile, dest string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", audioFile,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		dest,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}

// buildConcatList renders the ffmpeg concat demuxer input, one file per line.
func buildConcatList(paths []string) string {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("file '%s'", p))
	}
	return strings.Join(lines, "\n")
}

func isVideo(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".webm", ".mkv":
		return true
	}
	return false
}

// ProbeDuration reads a media file's duration in seconds via ffprobe.
func ProbeDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
