package cpu

import "github.com/dakofler/walnut/internal/parallel"

// Conv2D performs a direct 2D cross-correlation.
//
//	x: [n, cin, h, w]
//	w: [cout, cin, kh, kw]
//	b: [cout] or nil
//	y: [n, cout, hout, wout] where hout = (h+2*pad-kh)/stride + 1
//
// The (batch, output channel) iteration space is processed in parallel.
func Conv2D(y, x, w, b []float32, n, cin, h, wd, cout, kh, kw, stride, pad int) {
	hout := (h+2*pad-kh)/stride + 1
	wout := (wd+2*pad-kw)/stride + 1

	parallel.ForBatch(n, cout, func(bi, co int) {
		out := y[(bi*cout+co)*hout*wout:]
		for oh := 0; oh < hout; oh++ {
			for ow := 0; ow < wout; ow++ {
				var sum float32
				if b != nil {
					sum = b[co]
				}
				for ci := 0; ci < cin; ci++ {
					in := x[(bi*cin+ci)*h*wd:]
					ker := w[((co*cin+ci)*kh)*kw:]
					for fh := 0; fh < kh; fh++ {
						ih := oh*stride - pad + fh
						if ih < 0 || ih >= h {
							continue
						}
						for fw := 0; fw < kw; fw++ {
							iw := ow*stride - pad + fw
							if iw < 0 || iw >= wd {
								continue
							}
							sum += in[ih*wd+iw] * ker[fh*kw+fw]
						}
					}
				}
				out[oh*wout+ow] = sum
			}
		}
	}, cfg)
}

// Conv2DBackwardInput computes the gradient of Conv2D with respect to
// its input. dx must be zeroed by the caller.
//
//	dy: [n, cout, hout, wout], w: [cout, cin, kh, kw], dx: [n, cin, h, w]
//
// Parallelism is over the batch dimension only, so writes into dx never
// race across goroutines.
func Conv2DBackwardInput(dx, dy, w []float32, n, cin, h, wd, cout, kh, kw, stride, pad int) {
	hout := (h+2*pad-kh)/stride + 1
	wout := (wd+2*pad-kw)/stride + 1

	parallel.For(n, func(bi int) {
		for co := 0; co < cout; co++ {
			grad := dy[(bi*cout+co)*hout*wout:]
			for oh := 0; oh < hout; oh++ {
				for ow := 0; ow < wout; ow++ {
					g := grad[oh*wout+ow]
					if g == 0 {
						continue
					}
					for ci := 0; ci < cin; ci++ {
						din := dx[(bi*cin+ci)*h*wd:]
						ker := w[((co*cin+ci)*kh)*kw:]
						for fh := 0; fh < kh; fh++ {
							ih := oh*stride - pad + fh
							if ih < 0 || ih >= h {
								continue
							}
							for fw := 0; fw < kw; fw++ {
								iw := ow*stride - pad + fw
								if iw < 0 || iw >= wd {
									continue
								}
								din[ih*wd+iw] += g * ker[fh*kw+fw]
							}
						}
					}
				}
			}
		}
	}, parallel.Config{Enabled: cfg.Enabled, NumWorkers: cfg.NumWorkers, MinChunkSize: 1})
}

// Conv2DBackwardParams computes the gradients of Conv2D with respect to
// its weight and bias. dw and db must be zeroed by the caller; db may
// be nil when the layer has no bias.
//
// Parallelism is over output channels, the leading dimension of dw, so
// each goroutine owns a disjoint slice of the weight gradient.
func Conv2DBackwardParams(dw, db, dy, x []float32, n, cin, h, wd, cout, kh, kw, stride, pad int) {
	hout := (h+2*pad-kh)/stride + 1
	wout := (wd+2*pad-kw)/stride + 1

	parallel.For(cout, func(co int) {
		for bi := 0; bi < n; bi++ {
			grad := dy[(bi*cout+co)*hout*wout:]
			for oh := 0; oh < hout; oh++ {
				for ow := 0; ow < wout; ow++ {
					g := grad[oh*wout+ow]
					if g == 0 {
						continue
					}
					if db != nil {
						db[co] += g
					}
					for ci := 0; ci < cin; ci++ {
						in := x[(bi*cin+ci)*h*wd:]
						dker := dw[((co*cin+ci)*kh)*kw:]
						for fh := 0; fh < kh; fh++ {
							ih := oh*stride - pad + fh
							if ih < 0 || ih >= h {
								continue
							}
							for fw := 0; fw < kw; fw++ {
								iw := ow*stride - pad + fw
								if iw < 0 || iw >= wd {
									continue
								}
								dker[fh*kw+fw] += g * in[ih*wd+iw]
							}
						}
					}
				}
			}
		}
	}, parallel.Config{Enabled: cfg.Enabled, NumWorkers: cfg.NumWorkers, MinChunkSize: 1})
}
