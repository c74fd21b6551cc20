package cg

// builtinAWK is the immutable runtime library text asset (§9 "immutable
// runtime library text asset"): a fixed library of awk function
// definitions appended verbatim to the end of every generated program,
// providing the ABI named in §4.4. It never varies per query; only which
// functions actually get called varies.
const builtinAWK = `
function abs(v) {
  return v < 0 ? -v : v;
}

function ltrim(s, chars,    re) {
  re = "^[" chars "]+";
  sub(re, "", s);
  return s;
}

function rtrim(s, chars,    re) {
  re = "[" chars "]+$";
  sub(re, "", s);
  return s;
}

function trim(s, chars) {
  return rtrim(ltrim(s, chars), chars);
}

function min(a, b) {
  return a < b ? a : b;
}

function max(a, b) {
  return a > b ? a : b;
}

function replace(s, from, to,    out, idx) {
  out = "";
  while ((idx = index(s, from)) > 0) {
    out = out substr(s, 1, idx - 1) to;
    s = substr(s, idx + length(from));
    if (length(from) == 0) {
      out = out substr(s, 1, 1);
      s = substr(s, 2);
      if (length(s) == 0) break;
    }
  }
  return out s;
}

# like2regex translates a SQL LIKE pattern into an ERE: '%' -> '.*', '_' ->
# '.', every ERE metacharacter escaped, and the whole pattern anchored with
# ^...$ unless it begins/ends with '%' (in which case that end is left open).
function like2regex(pat,    i, c, n, out, anchorHead, anchorTail) {
  n = length(pat);
  anchorHead = 1;
  anchorTail = 1;
  out = "";
  for (i = 1; i <= n; i++) {
    c = substr(pat, i, 1);
    if (c == "%") {
      if (i == 1) anchorHead = 0;
      if (i == n) anchorTail = 0;
      out = out ".*";
    } else if (c == "_") {
      out = out ".";
    } else if (c ~ /[][(){}.*+?^$|\\]/) {
      out = out "\\" c;
    } else {
      out = out c;
    }
  }
  return (anchorHead ? "^" : "") out (anchorTail ? "$" : "");
}

# ip2bin/bin2ip/ip_in_cidr/mask_ip implement the dotted-quad <-> 32-bit
# integer arithmetic behind CIDR comparisons (§4.4). IPs are represented as
# an ordinary awk number holding the big-endian 32-bit value.
function ip2bin(ip,    parts, n, v) {
  n = split(ip, parts, ".");
  if (n != 4) return -1;
  v = parts[1] * 16777216 + parts[2] * 65536 + parts[3] * 256 + parts[4];
  return v;
}

function bin2ip(v,    o1, o2, o3, o4) {
  o1 = int(v / 16777216) % 256;
  o2 = int(v / 65536) % 256;
  o3 = int(v / 256) % 256;
  o4 = int(v) % 256;
  return o1 "." o2 "." o3 "." o4;
}

function ip_in_cidr(ip, cidr,    parts, base, bits, mask, ipv, basev) {
  split(cidr, parts, "/");
  base = parts[1];
  bits = parts[2] + 0;
  if (bits <= 0) {
    mask = 0;
  } else if (bits >= 32) {
    mask = 4294967295;
  } else {
    mask = 4294967295 - (2 ^ (32 - bits) - 1);
  }
  ipv = ip2bin(ip);
  basev = ip2bin(base);
  return and_(ipv, mask) == and_(basev, mask);
}

function mask_ip(ip, bits,    v, mask) {
  bits = bits + 0;
  if (bits <= 0) {
    mask = 0;
  } else if (bits >= 32) {
    mask = 4294967295;
  } else {
    mask = 4294967295 - (2 ^ (32 - bits) - 1);
  }
  v = and_(ip2bin(ip), mask);
  return bin2ip(v);
}

# and_ is a portable bitwise AND over the 32-bit unsigned range, since
# POSIX awk has no bitwise operators; used only by ip_in_cidr/mask_ip.
function and_(a, b,    bitv, r, i) {
  r = 0;
  bitv = 1;
  for (i = 0; i < 32; i++) {
    if ((a % 2) == 1 && (b % 2) == 1) {
      r += bitv;
    }
    a = int(a / 2);
    b = int(b / 2);
    bitv *= 2;
  }
  return r;
}
`

// builtinGawk holds the one runtime function that only exists under the
// gawk dialect: submatch, which relies on gawk's match()'s third-argument
// capture-group array extension (not available in portable awk).
const builtinGawk = `
function submatch(s, re,    groups) {
  if (match(s, re, groups) == 0) return "";
  return groups[1];
}
`
