package ta

// Streaming indicator state machines. Each consumes one closed-candle value
// at a time; Value reports ok=false while the indicator is still warming up,
// and callers must treat that as "insufficient history", not as zero.

type EMA struct {
	period int
	k      float64
	seed   []float64
	value  float64
	ready  bool
}

func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		k:      2.0 / float64(period+1),
		seed:   make([]float64, 0, period),
	}
}

// Update feeds one close. The first value is seeded with the simple average
// of the first `period` closes; before that the EMA is not valid.
func (e *EMA) Update(price float64) (float64, bool) {
	if !e.ready {
		e.seed = append(e.seed, price)
		if len(e.seed) < e.period {
			return 0, false
		}
		sum := 0.0
		for _, v := range e.seed {
			sum += v
		}
		e.value = sum / float64(e.period)
		e.ready = true
		e.seed = nil
		return e.value, true
	}
	e.value = price*e.k + e.value*(1-e.k)
	return e.value, true
}

func (e *EMA) Value() (float64, bool) { return e.value, e.ready }

// DEMA is 2*EMA1 - EMA2(EMA1). EMA2 only starts consuming once EMA1 is
// seeded, so the first valid value appears after 2*period - 1 candles.
type DEMA struct {
	ema1, ema2 *EMA
}

func NewDEMA(period int) *DEMA {
	return &DEMA{ema1: NewEMA(period), ema2: NewEMA(period)}
}

func (d *DEMA) Update(price float64) (float64, bool) {
	v1, ok := d.ema1.Update(price)
	if !ok {
		return 0, false
	}
	v2, ok := d.ema2.Update(v1)
	if !ok {
		return 0, false
	}
	return 2*v1 - v2, true
}

func (d *DEMA) Value() (float64, bool) {
	v1, ok1 := d.ema1.Value()
	v2, ok2 := d.ema2.Value()
	if !ok1 || !ok2 {
		return 0, false
	}
	return 2*v1 - v2, true
}

// ATR keeps a rolling window of true ranges and reports their simple average.
// Needs period+1 candles: the first candle only supplies the previous close.
type ATR struct {
	period    int
	prevClose float64
	havePrev  bool
	trs       []float64
}

func NewATR(period int) *ATR {
	return &ATR{period: period, trs: make([]float64, 0, period)}
}

func (a *ATR) Update(high, low, close float64) (float64, bool) {
	if !a.havePrev {
		a.prevClose = close
		a.havePrev = true
		return 0, false
	}
	tr := high - low
	if d := abs(high - a.prevClose); d > tr {
		tr = d
	}
	if d := abs(low - a.prevClose); d > tr {
		tr = d
	}
	a.prevClose = close
	a.trs = append(a.trs, tr)
	if len(a.trs) > a.period {
		a.trs = a.trs[1:]
	}
	return a.Value()
}

func (a *ATR) Value() (float64, bool) {
	if len(a.trs) < a.period {
		return 0, false
	}
	sum := 0.0
	for _, v := range a.trs {
		sum += v
	}
	return sum / float64(a.period), true
}

// Slope is the least-squares slope of vals over x = 0..n-1.
func Slope(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}
	xMean := float64(n-1) / 2
	yMean := 0.0
	for _, v := range vals {
		yMean += v
	}
	yMean /= float64(n)
	var num, den float64
	for i, v := range vals {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	return num / den
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
