package gpu

import (
	"fmt"
	"strings"

	"github.com/openfluke/segscan/scan"
)

// ElemType is the WGSL element type of a scan.
type ElemType uint8

const (
	U32 ElemType = iota
	I32
	F32
)

func (t ElemType) String() string {
	switch t {
	case I32:
		return "i32"
	case F32:
		return "f32"
	}
	return "u32"
}

// OpKind is the combine operator of a scan.
type OpKind uint8

const (
	OpSum OpKind = iota
	OpMin
	OpMax
	OpOr
)

var opNames = [...]string{"sum", "min", "max", "or"}

func (o OpKind) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op?"
}

// ParseOp maps an operator name to its kind.
func ParseOp(name string) (OpKind, error) {
	for i, n := range opNames {
		if n == name {
			return OpKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrUnsupported, name)
}

// SegScanSpec defines one segmented scan program.
type SegScanSpec struct {
	Type      ElemType
	Op        OpKind
	Backward  bool
	Exclusive bool
	Threads   int // workgroup size, a power of two in 1..256
}

// Validate checks that s describes a program the shaders can express.
func (s SegScanSpec) Validate() error {
	if s.Threads < 1 || s.Threads > 256 || s.Threads&(s.Threads-1) != 0 {
		return fmt.Errorf("%w: workgroup size %d", ErrUnsupported, s.Threads)
	}
	if s.Type > F32 || s.Op > OpOr {
		return fmt.Errorf("%w: element type %d, operator %d", ErrUnsupported, s.Type, s.Op)
	}
	if s.Op == OpOr && s.Type == F32 {
		return fmt.Errorf("%w: bitwise or on f32", ErrUnsupported)
	}
	return nil
}

// Layout is the workgroup memory layout shared with the CPU engine.
func (s SegScanSpec) Layout() scan.Layout {
	return scan.NewLayout(s.Threads)
}

func (s SegScanSpec) identity() string {
	switch s.Op {
	case OpMin:
		switch s.Type {
		case I32:
			return "2147483647i"
		case F32:
			return "bitcast<f32>(0x7f800000u)"
		}
		return "0xffffffffu"
	case OpMax:
		switch s.Type {
		case I32:
			return "bitcast<i32>(0x80000000u)"
		case F32:
			return "bitcast<f32>(0xff800000u)"
		}
	}
	switch s.Type {
	case I32:
		return "0i"
	case F32:
		return "0.0"
	}
	return "0u"
}

func (s SegScanSpec) combine() string {
	switch s.Op {
	case OpMin:
		return "min(a, b)"
	case OpMax:
		return "max(a, b)"
	case OpOr:
		return "a | b"
	}
	return "a + b"
}

// prelude declares the constants and helpers both kernels share. Upper levels
// always run forward.
func (s SegScanSpec) prelude(level0 bool) string {
	l := s.Layout()
	return fmt.Sprintf(`
		alias Elem = %s;

		const THREADS: u32 = %du;
		const SLOTS: u32 = %du;
		const CAPACITY: u32 = %du;
		const PADDED: u32 = %du;
		const BACKWARD: bool = %t;

		fn identity() -> Elem { return %s; }
		fn combine(a: Elem, b: Elem) -> Elem { return %s; }
		fn cf(i: u32) -> u32 { return i + (i >> 5u); }
		fn phys(k: u32, n: u32) -> u32 {
			if (BACKWARD) { return n - 1u - k; }
			return k;
		}
	`, s.Type, l.Threads, l.Slots, l.Capacity, l.Padded, level0 && s.Backward, s.identity(), s.combine())
}

// GenerateScanShader returns the local scan kernel. With level0 the kernel honours
// the direction and mode of s; otherwise it scans block aggregates forward and
// inclusive. params.x is the element count, params.y != 0 requests aggregates.
func GenerateScanShader(s SegScanSpec, level0 bool) string {
	return s.prelude(level0) + fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read_write> data : array<Elem>;
		@group(0) @binding(1) var<storage, read> flags : array<u32>;
		@group(0) @binding(2) var<storage, read_write> agg_sums : array<Elem>;
		@group(0) @binding(3) var<storage, read_write> agg_flags : array<u32>;
		@group(0) @binding(4) var<storage, read_write> agg_indices : array<u32>;
		@group(0) @binding(5) var<uniform> params : vec4<u32>;

		const EXCLUSIVE: bool = %t;

		var<workgroup> s_data: array<Elem, PADDED>;
		var<workgroup> s_flags: array<u32, PADDED>;
		var<workgroup> s_indices: array<u32, PADDED>;
		var<workgroup> s_tail: Elem;
		var<workgroup> s_boundary: u32;

		fn is_head(k: u32, n: u32) -> bool {
			if (k == 0u) { return true; }
			if (BACKWARD) { return flags[n - k] != 0u; }
			return flags[k] != 0u;
		}

		@compute @workgroup_size(THREADS)
		fn main(
			@builtin(workgroup_id) wg_id: vec3<u32>,
			@builtin(local_invocation_id) local_id: vec3<u32>
		) {
			let n = params.x;
			let tid = local_id.x;
			let base = wg_id.x * CAPACITY;
			let valid = min(CAPACITY, n - base);

			// Load: four elements per slot, scanned in registers
			var vals: array<Elem, 8>;
			var heads: u32 = 0u;
			for (var h: u32 = 0u; h < 2u; h++) {
				let slot = tid + h * THREADS;
				var acc = identity();
				var flag = 0u;
				var first_head = CAPACITY;
				for (var j: u32 = 0u; j < 4u; j++) {
					let li = slot * 4u + j;
					var v = identity();
					var head = true;
					if (li < valid) {
						let k = base + li;
						v = data[phys(k, n)];
						head = is_head(k, n);
						if (head && first_head == CAPACITY) { first_head = li; }
					}
					if (head) {
						acc = v;
						flag = 1u;
						heads = heads | (1u << (h * 4u + j));
					} else {
						acc = combine(acc, v);
					}
					vals[h * 4u + j] = acc;
				}
				let i = cf(slot);
				s_data[i] = acc;
				s_flags[i] = flag;
				s_indices[i] = first_head;
			}

			// Up-sweep
			var offset = 1u;
			for (var d = SLOTS >> 1u; d > 0u; d = d >> 1u) {
				workgroupBarrier();
				if (tid < d) {
					let ai = cf(offset * (2u * tid + 1u) - 1u);
					let bi = cf(offset * (2u * tid + 2u) - 1u);
					if (s_flags[bi] == 0u) { s_data[bi] = combine(s_data[ai], s_data[bi]); }
					s_flags[bi] = s_flags[bi] | s_flags[ai];
					s_indices[bi] = min(s_indices[ai], s_indices[bi]);
				}
				offset = offset << 1u;
			}
			workgroupBarrier();
			if (tid == 0u) {
				let root = cf(SLOTS - 1u);
				s_boundary = s_indices[root];
				s_data[root] = identity();
			}

			// Down-sweep
			for (var d = 1u; d < SLOTS; d = d << 1u) {
				offset = offset >> 1u;
				workgroupBarrier();
				if (tid < d) {
					let ai = cf(offset * (2u * tid + 1u) - 1u);
					let bi = cf(offset * (2u * tid + 2u) - 1u);
					let left = s_data[ai];
					s_data[ai] = s_data[bi];
					if (s_flags[ai] != 0u) {
						s_data[bi] = left;
					} else {
						s_data[bi] = combine(s_data[bi], left);
					}
				}
			}
			workgroupBarrier();

			// Store: carry applies up to the slot's first head
			for (var h: u32 = 0u; h < 2u; h++) {
				let slot = tid + h * THREADS;
				let start = slot * 4u;
				if (start < valid) {
					let carry = s_data[cf(slot)];
					var live = true;
					var prev = carry;
					for (var j: u32 = 0u; j < 4u; j++) {
						let bit = (heads >> (h * 4u + j)) & 1u;
						if (bit != 0u) { live = false; }
						var incl = vals[h * 4u + j];
						if (live) { incl = combine(carry, incl); }
						let li = start + j;
						if (li < valid) {
							let p = phys(base + li, n);
							if (!EXCLUSIVE) {
								data[p] = incl;
							} else if (bit != 0u) {
								data[p] = identity();
							} else {
								data[p] = prev;
							}
							if (li == valid - 1u) { s_tail = incl; }
						}
						prev = incl;
					}
				}
			}
			workgroupBarrier();

			if (tid == 0u && params.y != 0u) {
				agg_sums[wg_id.x] = s_tail;
				agg_indices[wg_id.x] = s_boundary;
				agg_flags[wg_id.x] = select(0u, 1u, s_boundary < CAPACITY);
			}
		}
	`, level0 && s.Exclusive)
}

// GenerateDistributeShader returns the uniform-add kernel. Workgroup w serves block
// w+1; params.x is the element count of the level.
func GenerateDistributeShader(s SegScanSpec, level0 bool) string {
	return s.prelude(level0) + `
		@group(0) @binding(0) var<storage, read_write> data : array<Elem>;
		@group(0) @binding(1) var<storage, read> agg_sums : array<Elem>;
		@group(0) @binding(2) var<storage, read> agg_indices : array<u32>;
		@group(0) @binding(3) var<uniform> params : vec4<u32>;

		var<workgroup> s_carry: Elem;
		var<workgroup> s_cutoff: u32;

		@compute @workgroup_size(THREADS)
		fn main(
			@builtin(workgroup_id) wg_id: vec3<u32>,
			@builtin(local_invocation_id) local_id: vec3<u32>
		) {
			let n = params.x;
			let tid = local_id.x;
			let b = wg_id.x + 1u;
			let base = b * CAPACITY;
			if (tid == 0u) {
				s_carry = agg_sums[b - 1u];
				s_cutoff = min(agg_indices[b], n - base);
			}
			workgroupBarrier();
			let carry = s_carry;
			let cutoff = s_cutoff;
			for (var i = tid; i < cutoff; i += THREADS) {
				let p = phys(base + i, n);
				data[p] = combine(carry, data[p]);
			}
		}
	`
}

// shaderKey names a compiled program for labels.
func (s SegScanSpec) shaderKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SegScan_%s_%s_%d", s.Type, s.Op, s.Threads)
	if s.Backward {
		b.WriteString("_bwd")
	}
	if s.Exclusive {
		b.WriteString("_excl")
	}
	return b.String()
}
