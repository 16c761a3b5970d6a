// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wgsl

import "github.com/gogpu/kernelwgsl/ir"

// f64Library is the double-float (vec2<f32>) helper catalog. x is the
// high f32 lane, y the low-order residual; Dekker/Knuth two-sum and
// two-product are used for add/mul so the residual captures the
// rounding error the hardware f32 op dropped.
const f64Library = `alias f64 = vec2<f32>;

fn f64_from_f32(v: f32) -> f64 {
    return f64(v, 0.0);
}

fn f64_from_ieee754_bits(lo: u32, hi: u32) -> f64 {
    let sign = select(1.0, -1.0, (hi >> 31u) != 0u);
    let biased_exp = (hi >> 20u) & 0x7ffu;
    let mant_hi = hi & 0xfffffu;
    if (biased_exp == 0u && mant_hi == 0u && lo == 0u) {
        return f64(0.0, 0.0);
    }
    if (biased_exp == 0x7ffu) {
        return f64(0.0, 0.0);
    }
    let exp = i32(biased_exp) - 1023;
    let mant = (f64_mantissa_to_f32(mant_hi, lo)) * exp2(f32(exp - 52));
    let hi32 = sign * mant;
    return f64_two_sum(hi32, 0.0);
}

fn f64_mantissa_to_f32(mant_hi: u32, lo: u32) -> f32 {
    let full = (f32(mant_hi) * 4294967296.0 + f32(lo)) + f32(1u) * 4503599627370496.0;
    return full;
}

fn f64_to_ieee754_bits(v: f64) -> vec2<u32> {
    let combined = f64_to_f32(v);
    let bits = bitcast<u32>(combined);
    let sign = bits >> 31u;
    let exp = (bits >> 23u) & 0xffu;
    let mant = bits & 0x7fffffu;
    let dexp = u32(i32(exp) - 127 + 1023);
    let hi = (sign << 31u) | (dexp << 20u) | (mant >> 3u);
    let lo = mant << 29u;
    return vec2<u32>(lo, hi);
}

fn f64_to_f32(v: f64) -> f32 {
    return v.x + v.y;
}

fn f64_two_sum(a: f32, b: f32) -> f64 {
    let s = a + b;
    let bb = s - a;
    let err = (a - (s - bb)) + (b - bb);
    return f64(s, err);
}

fn f64_two_prod(a: f32, b: f32) -> f64 {
    let p = a * b;
    let err = fma(a, b, -p);
    return f64(p, err);
}

fn f64_add(a: f64, b: f64) -> f64 {
    var s = f64_two_sum(a.x, b.x);
    s.y = s.y + a.y + b.y;
    return f64_two_sum(s.x, s.y);
}

fn f64_neg(a: f64) -> f64 {
    return f64(-a.x, -a.y);
}

fn f64_sub(a: f64, b: f64) -> f64 {
    return f64_add(a, f64_neg(b));
}

fn f64_mul(a: f64, b: f64) -> f64 {
    var p = f64_two_prod(a.x, b.x);
    p.y = p.y + a.x * b.y + a.y * b.x;
    return f64_two_sum(p.x, p.y);
}

fn f64_div(a: f64, b: f64) -> f64 {
    let q1 = a.x / b.x;
    let r = f64_sub(a, f64_mul(f64(q1, 0.0), b));
    let q2 = f64_to_f32(r) / b.x;
    return f64_two_sum(q1, q2);
}

fn f64_abs(a: f64) -> f64 {
    return select(f64_neg(a), a, a.x >= 0.0);
}

fn f64_lt(a: f64, b: f64) -> bool {
    return a.x < b.x || (a.x == b.x && a.y < b.y);
}

fn f64_le(a: f64, b: f64) -> bool {
    return a.x < b.x || (a.x == b.x && a.y <= b.y);
}

fn f64_gt(a: f64, b: f64) -> bool {
    return f64_lt(b, a);
}

fn f64_ge(a: f64, b: f64) -> bool {
    return f64_le(b, a);
}

fn f64_eq(a: f64, b: f64) -> bool {
    return a.x == b.x && a.y == b.y;
}

fn f64_ne(a: f64, b: f64) -> bool {
    return !f64_eq(a, b);
}

fn f64_min(a: f64, b: f64) -> f64 {
    return select(b, a, f64_lt(a, b));
}

fn f64_max(a: f64, b: f64) -> f64 {
    return select(b, a, f64_gt(a, b));
}
`

// i64Library is the double-word (vec2<u32>) helper catalog. x is the
// low u32 lane, y the high lane; lane order is fixed low-lane-first
// (see the Open Questions entry in DESIGN.md).
const i64Library = `alias i64 = vec2<u32>;
alias u64 = vec2<u32>;

fn u64_add(a: u64, b: u64) -> u64 {
    let lo = a.x + b.x;
    let carry = select(0u, 1u, lo < a.x);
    return u64(lo, a.y + b.y + carry);
}

fn u64_sub(a: u64, b: u64) -> u64 {
    let borrow = select(0u, 1u, a.x < b.x);
    return u64(a.x - b.x, a.y - b.y - borrow);
}

fn i64_add(a: i64, b: i64) -> i64 {
    return bitcast<i64>(u64_add(bitcast<u64>(a), bitcast<u64>(b)));
}

fn i64_sub(a: i64, b: i64) -> i64 {
    return bitcast<i64>(u64_sub(bitcast<u64>(a), bitcast<u64>(b)));
}

fn i64_neg(a: i64) -> i64 {
    return i64_sub(i64(0u, 0u), a);
}

fn u64_mul(a: u64, b: u64) -> u64 {
    let a_lo = a.x & 0xffffu;
    let a_hi = a.x >> 16u;
    let b_lo = b.x & 0xffffu;
    let b_hi = b.x >> 16u;

    let p0 = a_lo * b_lo;
    let p1 = a_lo * b_hi;
    let p2 = a_hi * b_lo;
    let p3 = a_hi * b_hi;

    let mid = p1 + (p0 >> 16u) + (p2 & 0xffffu);
    let lo = (p0 & 0xffffu) | (mid << 16u);
    let hi = p3 + (p1 >> 16u) + (p2 >> 16u) + (mid >> 16u) + a.x * b.y + a.y * b.x;
    return u64(lo, hi);
}

fn i64_mul(a: i64, b: i64) -> i64 {
    let neg = (a.y >> 31u) != (b.y >> 31u);
    let ua = select(bitcast<u64>(a), bitcast<u64>(i64_neg(a)), (a.y >> 31u) != 0u);
    let ub = select(bitcast<u64>(b), bitcast<u64>(i64_neg(b)), (b.y >> 31u) != 0u);
    let prod = u64_mul(ua, ub);
    return select(bitcast<i64>(prod), i64_neg(bitcast<i64>(prod)), neg);
}

fn u64_shl(a: u64, n: u32) -> u64 {
    if (n == 0u) {
        return a;
    }
    if (n >= 64u) {
        return u64(0u, 0u);
    }
    if (n < 32u) {
        return u64(a.x << n, (a.y << n) | (a.x >> (32u - n)));
    }
    return u64(0u, a.x << (n - 32u));
}

fn u64_shr(a: u64, n: u32) -> u64 {
    if (n == 0u) {
        return a;
    }
    if (n >= 64u) {
        return u64(0u, 0u);
    }
    if (n < 32u) {
        return u64((a.x >> n) | (a.y << (32u - n)), a.y >> n);
    }
    return u64(a.y >> (n - 32u), 0u);
}

fn i64_shl(a: i64, n: u32) -> i64 {
    return bitcast<i64>(u64_shl(bitcast<u64>(a), n));
}

fn i64_shr(a: i64, n: u32) -> i64 {
    if (n == 0u) {
        return a;
    }
    let sign_fill = select(0u, 0xffffffffu, (a.y >> 31u) != 0u);
    if (n >= 64u) {
        return i64(sign_fill, sign_fill);
    }
    if (n < 32u) {
        let lo = (a.x >> n) | (a.y << (32u - n));
        let hi = (u32(i32(a.y) >> n));
        return i64(lo, hi);
    }
    return i64(u32(i32(a.y) >> (n - 32u)), sign_fill);
}

fn u64_and(a: u64, b: u64) -> u64 { return u64(a.x & b.x, a.y & b.y); }
fn u64_or(a: u64, b: u64) -> u64 { return u64(a.x | b.x, a.y | b.y); }
fn u64_xor(a: u64, b: u64) -> u64 { return u64(a.x ^ b.x, a.y ^ b.y); }
fn i64_and(a: i64, b: i64) -> i64 { return bitcast<i64>(u64_and(bitcast<u64>(a), bitcast<u64>(b))); }
fn i64_or(a: i64, b: i64) -> i64 { return bitcast<i64>(u64_or(bitcast<u64>(a), bitcast<u64>(b))); }
fn i64_xor(a: i64, b: i64) -> i64 { return bitcast<i64>(u64_xor(bitcast<u64>(a), bitcast<u64>(b))); }

fn u64_eq(a: u64, b: u64) -> bool { return a.x == b.x && a.y == b.y; }
fn u64_ne(a: u64, b: u64) -> bool { return !u64_eq(a, b); }
fn u64_lt(a: u64, b: u64) -> bool { return a.y < b.y || (a.y == b.y && a.x < b.x); }
fn u64_le(a: u64, b: u64) -> bool { return a.y < b.y || (a.y == b.y && a.x <= b.x); }
fn u64_gt(a: u64, b: u64) -> bool { return u64_lt(b, a); }
fn u64_ge(a: u64, b: u64) -> bool { return u64_le(b, a); }

fn i64_eq(a: i64, b: i64) -> bool { return a.x == b.x && a.y == b.y; }
fn i64_ne(a: i64, b: i64) -> bool { return !i64_eq(a, b); }
fn i64_lt(a: i64, b: i64) -> bool {
    let sa = (a.y >> 31u) != 0u;
    let sb = (b.y >> 31u) != 0u;
    if (sa != sb) {
        return sa;
    }
    return u64_lt(bitcast<u64>(a), bitcast<u64>(b));
}
fn i64_le(a: i64, b: i64) -> bool { return i64_lt(a, b) || i64_eq(a, b); }
fn i64_gt(a: i64, b: i64) -> bool { return i64_lt(b, a); }
fn i64_ge(a: i64, b: i64) -> bool { return i64_le(b, a); }

fn u64_min(a: u64, b: u64) -> u64 { return select(b, a, u64_lt(a, b)); }
fn u64_max(a: u64, b: u64) -> u64 { return select(b, a, u64_gt(a, b)); }
fn i64_min(a: i64, b: i64) -> i64 { return select(b, a, i64_lt(a, b)); }
fn i64_max(a: i64, b: i64) -> i64 { return select(b, a, i64_gt(a, b)); }
`

// emulationFuncName resolves the emulation-library function name for a
// binary arithmetic operator on a 64-bit kind. ok is false for an
// operator the library has no entry for: an unknown operator is an
// error, never a silent fall-through.
func emulationFuncName(kind ir.ScalarKind, op ir.BinaryArithOp) (name string, ok bool) {
	prefix := emulationPrefix(kind)
	if prefix == "" {
		return "", false
	}
	switch op {
	case ir.ArithAdd:
		return prefix + "_add", true
	case ir.ArithSub:
		return prefix + "_sub", true
	case ir.ArithMul:
		return prefix + "_mul", true
	case ir.ArithDiv:
		if prefix == "f64" {
			return "f64_div", true
		}
		return "", false // integer 64-bit division has no emulation entry
	case ir.ArithAnd:
		if prefix == "f64" {
			return "", false
		}
		return prefix + "_and", true
	case ir.ArithOr:
		if prefix == "f64" {
			return "", false
		}
		return prefix + "_or", true
	case ir.ArithXor:
		if prefix == "f64" {
			return "", false
		}
		return prefix + "_xor", true
	case ir.ArithShl:
		if prefix == "f64" {
			return "", false
		}
		return prefix + "_shl", true
	case ir.ArithShr:
		if prefix == "f64" {
			return "", false
		}
		return prefix + "_shr", true
	case ir.ArithMin:
		return prefix + "_min", true
	case ir.ArithMax:
		return prefix + "_max", true
	default:
		return "", false
	}
}

// emulationCompareFuncName resolves the comparison function for a
// 64-bit kind.
func emulationCompareFuncName(kind ir.ScalarKind, op ir.CompareOp) (name string, ok bool) {
	prefix := emulationPrefix(kind)
	if prefix == "" {
		return "", false
	}
	switch op {
	case ir.CmpEq:
		return prefix + "_eq", true
	case ir.CmpNe:
		return prefix + "_ne", true
	case ir.CmpLt:
		return prefix + "_lt", true
	case ir.CmpLe:
		return prefix + "_le", true
	case ir.CmpGt:
		return prefix + "_gt", true
	case ir.CmpGe:
		return prefix + "_ge", true
	default:
		return "", false
	}
}

func emulationPrefix(kind ir.ScalarKind) string {
	switch kind {
	case ir.ScalarI64:
		return "i64"
	case ir.ScalarU64:
		return "u64"
	case ir.ScalarF64:
		return "f64"
	default:
		return ""
	}
}
