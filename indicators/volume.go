package indicators

import (
	"fmt"

	"github.com/vnquant/watchtower/market"
)

// VolumeSMA is a streaming simple moving average of bar volume, used for
// the optional volume-confirmation condition.
type VolumeSMA struct {
	period int
	window []float64
	sum    float64
}

// NewVolumeSMA creates a volume average over the given period.
func NewVolumeSMA(period int) *VolumeSMA {
	return &VolumeSMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (v *VolumeSMA) Name() string {
	return fmt.Sprintf("VOL_SMA(%d)", v.period)
}

func (v *VolumeSMA) Warmup() int { return v.period }

func (v *VolumeSMA) Reset() {
	v.window = v.window[:0]
	v.sum = 0
}

func (v *VolumeSMA) Update(b market.Bar) {
	v.window = append(v.window, b.Volume)
	v.sum += b.Volume
	if len(v.window) > v.period {
		v.sum -= v.window[0]
		v.window = v.window[1:]
	}
}

func (v *VolumeSMA) Ready() bool {
	return len(v.window) >= v.period
}

func (v *VolumeSMA) Value() float64 {
	if len(v.window) == 0 {
		return 0
	}
	return v.sum / float64(len(v.window))
}
