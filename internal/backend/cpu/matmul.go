package cpu

import "github.com/dakofler/walnut/internal/parallel"

// MatMul computes c = a @ b for row-major matrices.
//
//	a: [m, k], b: [k, n], c: [m, n]
//
// Rows of the output are computed independently and in parallel for
// large matrices.
func MatMul(c, a, b []float32, m, k, n int) {
	parallel.For(m, func(i int) {
		row := c[i*n : (i+1)*n]
		for j := range row {
			row[j] = 0
		}
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j, bv := range bRow {
				row[j] += av * bv
			}
		}
	}, cfg)
}

// Transpose copies the row-major matrix a [m, n] into dst as its
// transpose [n, m].
func Transpose(dst, a []float32, m, n int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			dst[j*m+i] = a[i*n+j]
		}
	}
}
