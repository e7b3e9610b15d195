package app

import (
	"encoding/binary"
	"math/rand"
	"testing"
)

// TestSnapPCM 测试断裂音效数据长度与衰减包络
func TestSnapPCM(t *testing.T) {
	pcm := SnapPCM(sampleRate, rand.New(rand.NewSource(1)))

	wantLen := sampleRate * snapDurationMs / 1000 * 4
	if len(pcm) != wantLen {
		t.Fatalf("len = %d, 期望 %d", len(pcm), wantLen)
	}

	peak := func(from, to int) int {
		max := 0
		for i := from; i < to; i += 4 {
			v := int(int16(binary.LittleEndian.Uint16(pcm[i:])))
			if v < 0 {
				v = -v
			}
			if v > max {
				max = v
			}
		}
		return max
	}
	quarter := len(pcm) / 4 / 4 * 4
	head, tail := peak(0, quarter), peak(len(pcm)-quarter, len(pcm))
	if head <= tail*4 {
		t.Errorf("音量应快速衰减, 开头峰值 %d 结尾峰值 %d", head, tail)
	}

	// 左右声道相同
	for i := 0; i < len(pcm); i += 4 {
		if pcm[i] != pcm[i+2] || pcm[i+1] != pcm[i+3] {
			t.Fatalf("第 %d 帧左右声道不一致", i/4)
		}
	}
}

// TestPlaySnapNilSafe 测试没有音频上下文时不播放
func TestPlaySnapNilSafe(t *testing.T) {
	var se *SoundEffects
	if se.PlaySnap() {
		t.Error("nil SoundEffects 不应播放")
	}
}
