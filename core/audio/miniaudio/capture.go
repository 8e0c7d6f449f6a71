package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/callgym/callgym-core/core/audio"
)

// capturePeriodFrames sizes the chunks handed to onAudio: 480 frames at the
// default rate is 20ms, one realtime audio append per callback.
const capturePeriodFrames = 480

// captureClient owns the default microphone. The device exists from Init
// until Uninit; audio only flows between Start and Stop.
type captureClient struct {
	device *malgo.Device

	mu sync.Mutex

	// cbMu guards onAudio alone; the data callback must never contend with
	// the device lock while the device is stopping.
	cbMu    sync.Mutex
	onAudio func(audio []byte)
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	const channels = 1
	format := malgo.FormatS16

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Capture.Format = format
	config.Capture.Channels = channels
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = capturePeriodFrames
	config.Periods = 3

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: c.readAudio(malgo.SampleSizeInBytes(format) * channels),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	c.device = device

	return nil
}

// Start begins feeding microphone chunks to onAudio. On an already running
// device it only retargets the callback.
func (c *captureClient) Start(onAudio func(audio []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("capture device not initialized")
	}

	c.setOnAudio(onAudio)
	if c.device.IsStarted() {
		return nil
	}
	if err := c.device.Start(); err != nil {
		c.setOnAudio(nil)
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	return nil
}

// Stop halts capture; a device that was never started is left alone.
func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setOnAudio(nil)
	if c.device == nil || !c.device.IsStarted() {
		return nil
	}
	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}

	return nil
}

// Uninit releases the device. Safe to call more than once.
func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.setOnAudio(nil)

	return nil
}

func (c *captureClient) setOnAudio(onAudio func(audio []byte)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onAudio = onAudio
}

func (c *captureClient) readAudio(bytesPerFrame int) malgo.DataProc {
	return func(_, pInput []byte, frameCount uint32) {
		n := int(frameCount) * bytesPerFrame
		if n == 0 || len(pInput) < n {
			return
		}

		c.cbMu.Lock()
		onAudio := c.onAudio
		c.cbMu.Unlock()
		if onAudio != nil {
			onAudio(pInput[:n])
		}
	}
}
