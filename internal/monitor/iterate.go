package monitor

import (
	"iter"
	"slices"
)

// Seq monitors seq. length is the number of elements, or negative when
// unknown. Each iteration of the returned sequence is a new run; values are
// yielded unchanged and nothing is read ahead.
//
// Progress is the index of the element being handed out. Breaking out of the
// loop aborts the run without an error.
func Seq[V any](m *Monitor, seq iter.Seq[V], length int) iter.Seq[V] {
	if !m.Enabled() {
		return seq
	}
	return func(yield func(V) bool) {
		r := m.begin(length)
		if r == nil {
			seq(yield)
			return
		}
		r.start()
		defer r.settle()
		i := 0
		for v := range seq {
			r.step(i)
			if !yield(v) {
				r.finish(false, nil)
				return
			}
			i++
		}
		r.finish(true, nil)
	}
}

// Slice monitors the elements of s.
func Slice[V any](m *Monitor, s []V) iter.Seq[V] {
	return Seq(m, slices.Values(s), len(s))
}

// Seq2 monitors a fallible sequence. The first non-nil error aborts the run,
// is reported in the terminal notification and is then yielded unchanged as
// the last pair of the sequence.
func Seq2[V any](m *Monitor, seq iter.Seq2[V, error], length int) iter.Seq2[V, error] {
	if !m.Enabled() {
		return seq
	}
	return func(yield func(V, error) bool) {
		r := m.begin(length)
		if r == nil {
			seq(yield)
			return
		}
		r.start()
		defer r.settle()
		i := 0
		for v, err := range seq {
			if err != nil {
				r.finish(false, err)
				yield(v, err)
				return
			}
			r.step(i)
			if !yield(v, nil) {
				r.finish(false, nil)
				return
			}
			i++
		}
		r.finish(true, nil)
	}
}
