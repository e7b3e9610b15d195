package app

import (
	"encoding/binary"
	"log"
	"math"
	"math/rand"

	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

const (
	sampleRate     = 48000
	snapDurationMs = 140
	snapToneHz     = 1900
)

// SoundEffects 程序化音效
// 束缚带断裂时播放短促的金属断裂声，音量受音效设置控制
type SoundEffects struct {
	context  *audio.Context
	settings *game.SettingsManager
	snap     []byte
}

// NewSoundEffects 创建音效管理器
func NewSoundEffects(context *audio.Context, settings *game.SettingsManager) *SoundEffects {
	return &SoundEffects{
		context:  context,
		settings: settings,
		snap:     SnapPCM(context.SampleRate(), rand.New(rand.NewSource(7))),
	}
}

// PlaySnap 播放断裂音效
// 返回是否实际播放
func (se *SoundEffects) PlaySnap() bool {
	if se == nil || se.context == nil {
		return false
	}
	s := se.settings.GetSettings()
	if !s.SoundEnabled || s.SoundVolume <= 0 {
		return false
	}

	player := se.context.NewPlayerFromBytes(se.snap)
	player.SetVolume(s.SoundVolume)
	player.Play()
	log.Printf("[SoundEffects] Snap")
	return true
}

// SnapPCM 生成断裂音效的 PCM 数据（16 位有符号小端，双声道）
// 高频音调叠加衰减噪声，包络为指数衰减
func SnapPCM(rate int, rng *rand.Rand) []byte {
	n := rate * snapDurationMs / 1000
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(rate)
		env := math.Exp(-t * 40)
		tone := math.Sin(2 * math.Pi * snapToneHz * t)
		noise := rng.Float64()*2 - 1
		v := env * (0.55*tone + 0.45*noise)
		sample := int16(math.Max(-1, math.Min(1, v)) * math.MaxInt16 * 0.8)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(sample))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(sample))
	}
	return buf
}
