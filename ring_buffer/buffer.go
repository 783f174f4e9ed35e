package ring_buffer

type bufImpl struct {
	buffer []float64
	head   int
}

func New(size int) *bufImpl {
	return &bufImpl{
		buffer: make([]float64, size),
		head:   0,
	}
}

func (r *bufImpl) Add(samples []float64) {
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
	}
}

func (r *bufImpl) Read() []float64 {
	samples := make([]float64, len(r.buffer))
	for i := 0; i < len(r.buffer); i++ {
		samples[i] = r.buffer[(r.head+i)%len(r.buffer)]
	}
	return samples
}

// Mean returns the average of the buffer contents, used to smooth a
// stream of level readings.
func (r *bufImpl) Mean() float64 {
	sum := 0.0
	for _, s := range r.buffer {
		sum += s
	}
	return sum / float64(len(r.buffer))
}

func (r *bufImpl) Clear() {
	for i := 0; i < len(r.buffer); i++ {
		r.buffer[i] = 0
	}
}
