package scan

// Reference computes the segmented scan sequentially. It defines the results the
// engine produces and is used to check them.
func Reference[T any, O Operator[T]](out, in []T, flags []uint32, tr Traits[T, O]) {
	n := len(in)
	var v view = forward{flags: flags}
	if tr.Direction == Backward {
		v = backward{n: n, flags: flags}
	}
	acc := tr.Op.Identity()
	for k := range n {
		p := v.index(k)
		x := in[p]
		if v.head(k) {
			acc = tr.Op.Identity()
		}
		if tr.Mode == Exclusive {
			out[p] = acc
			acc = tr.Op.Combine(acc, x)
		} else {
			acc = tr.Op.Combine(acc, x)
			out[p] = acc
		}
	}
}
