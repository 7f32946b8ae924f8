package vo

import (
	"fmt"
	"strconv"
)

// HLSSegmentOptions 切片参数
type HLSSegmentOptions struct {
	SegmentSeconds int
	// ListSize 0 keeps every segment in the playlist (VOD).
	ListSize       int
	SegmentType    string
	SegmentPattern string
	MasterName     string
}

// EncodeOptions 声明式编码参数，由执行器翻译成 ffmpeg 参数
type EncodeOptions struct {
	Kind DerivativeKind

	SeekSeconds float64
	Frames      int
	// Scale is the ffmpeg scale expression, e.g. "-2:480".
	Scale      string
	VideoCodec string
	CRF        int
	Preset     string
	// Quality maps to -q:v for image output; 0 leaves it unset.
	Quality int

	AudioCodec   string
	AudioBitrate string
	NoAudio      bool
	FastStart    bool

	HLS *HLSSegmentOptions
}

// ThumbnailOptions 单帧截图
func ThumbnailOptions(offsetSeconds float64, width, quality int) EncodeOptions {
	return EncodeOptions{
		Kind:        KindThumbnail,
		SeekSeconds: offsetSeconds,
		Frames:      1,
		Scale:       fmt.Sprintf("%d:-2", width),
		Quality:     quality,
		NoAudio:     true,
	}
}

// PreviewOptions 低分辨率单文件预览
func PreviewOptions(videoCodec string, height, crf int, preset, audioCodec, audioBitrate string) EncodeOptions {
	return EncodeOptions{
		Kind:         KindPreview,
		Scale:        fmt.Sprintf("-2:%d", height),
		VideoCodec:   videoCodec,
		CRF:          crf,
		Preset:       preset,
		AudioCodec:   audioCodec,
		AudioBitrate: audioBitrate,
		FastStart:    true,
	}
}

// AdaptiveOptions HLS 点播包
func AdaptiveOptions(videoCodec string, height, crf int, preset, audioBitrate string, segmentSeconds int, masterName string) EncodeOptions {
	return EncodeOptions{
		Kind:         KindAdaptivePackage,
		Scale:        fmt.Sprintf("-2:%d", height),
		VideoCodec:   videoCodec,
		CRF:          crf,
		Preset:       preset,
		AudioCodec:   "aac",
		AudioBitrate: audioBitrate,
		HLS: &HLSSegmentOptions{
			SegmentSeconds: segmentSeconds,
			ListSize:       0,
			SegmentType:    "mpegts",
			SegmentPattern: "segment_%03d.ts",
			MasterName:     masterName,
		},
	}
}

// WithAudio returns a copy with a different audio codec, used for the
// re-encode retry when stream copy is rejected by the container.
func (o EncodeOptions) WithAudio(codec, bitrate string) EncodeOptions {
	o.AudioCodec = codec
	o.AudioBitrate = bitrate
	return o
}

// InputArgs 放在 -i 之前的参数
func (o EncodeOptions) InputArgs() []string {
	if o.SeekSeconds <= 0 {
		return nil
	}
	return []string{"-ss", strconv.FormatFloat(o.SeekSeconds, 'f', -1, 64)}
}

// OutputArgs 放在 -i 之后、输出路径之前的参数
func (o EncodeOptions) OutputArgs() []string {
	args := make([]string, 0, 24)
	if o.Frames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(o.Frames))
	}
	if o.Scale != "" {
		args = append(args, "-vf", "scale="+o.Scale)
	}
	if o.VideoCodec != "" {
		args = append(args, "-c:v", o.VideoCodec)
	}
	if o.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(o.CRF))
	}
	if o.Preset != "" {
		args = append(args, "-preset", o.Preset)
	}
	if o.Quality > 0 {
		args = append(args, "-q:v", strconv.Itoa(o.Quality))
	}

	switch {
	case o.NoAudio:
		args = append(args, "-an")
	case o.AudioCodec != "":
		args = append(args, "-c:a", o.AudioCodec)
		if o.AudioCodec != "copy" && o.AudioBitrate != "" {
			args = append(args, "-b:a", o.AudioBitrate)
		}
	}

	if o.FastStart {
		args = append(args, "-movflags", "+faststart")
	}
	if o.HLS != nil {
		args = append(args,
			"-hls_time", strconv.Itoa(o.HLS.SegmentSeconds),
			"-hls_list_size", strconv.Itoa(o.HLS.ListSize),
			"-hls_segment_type", o.HLS.SegmentType,
			"-f", "hls",
		)
		if o.HLS.MasterName != "" {
			args = append(args, "-master_pl_name", o.HLS.MasterName)
		}
	}
	return args
}
