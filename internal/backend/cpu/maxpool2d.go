package cpu

import "github.com/dakofler/walnut/internal/parallel"

// MaxPool2D performs 2D max pooling.
//
//	x: [n, c, h, w]
//	y: [n, c, hout, wout] where hout = (h-k)/stride + 1
//	idx: same size as y; receives the flat input index of each maximum,
//	     consumed by MaxPool2DBackward to route gradients.
func MaxPool2D(y []float32, idx []int32, x []float32, n, c, h, w, k, stride int) {
	hout := (h-k)/stride + 1
	wout := (w-k)/stride + 1

	parallel.ForBatch(n, c, func(bi, ci int) {
		base := (bi*c + ci) * h * w
		in := x[base : base+h*w]
		out := y[(bi*c+ci)*hout*wout:]
		outIdx := idx[(bi*c+ci)*hout*wout:]
		for oh := 0; oh < hout; oh++ {
			for ow := 0; ow < wout; ow++ {
				best := in[oh*stride*w+ow*stride]
				bestIdx := oh*stride*w + ow*stride
				for fh := 0; fh < k; fh++ {
					for fw := 0; fw < k; fw++ {
						pos := (oh*stride+fh)*w + ow*stride + fw
						if in[pos] > best {
							best = in[pos]
							bestIdx = pos
						}
					}
				}
				out[oh*wout+ow] = best
				outIdx[oh*wout+ow] = int32(base + bestIdx)
			}
		}
	}, cfg)
}

// MaxPool2DBackward routes output gradients back to the positions that
// produced each maximum. dx must be zeroed by the caller.
func MaxPool2DBackward(dx, dy []float32, idx []int32) {
	for i, g := range dy {
		dx[idx[i]] += g
	}
}
