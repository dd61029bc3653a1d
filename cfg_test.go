package aoe

import (
	"net"
	"testing"
)

func TestServeCFGDeniedByACL(t *testing.T) {
	v := newIdleVolume()
	v.ACL.Add(net.HardwareAddr{9, 9, 9, 9, 9, 9})

	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}
	reply, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandRead})
	if !drop {
		t.Fatal("expected request denied by ACL to be dropped")
	}
	if reply != nil || aoeErr != 0 {
		t.Fatalf("unexpected reply=%v aoeErr=%v", reply, aoeErr)
	}
}

func TestServeCFGRead(t *testing.T) {
	v := newIdleVolume()
	v.setCFG([]byte("hello"))

	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}
	reply, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandRead})
	if drop || aoeErr != 0 {
		t.Fatalf("unexpected drop=%v aoeErr=%v", drop, aoeErr)
	}
	if string(reply.Data) != "hello" {
		t.Fatalf("unexpected data: %q", reply.Data)
	}
	if reply.DataLen != 5 {
		t.Fatalf("unexpected DataLen: %d", reply.DataLen)
	}
}

func TestServeCFGTestExactMatch(t *testing.T) {
	v := newIdleVolume()
	v.setCFG([]byte("hello"))
	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}

	_, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandTest, Data: []byte("hello")})
	if drop || aoeErr != 0 {
		t.Fatalf("unexpected drop=%v aoeErr=%v for matching TEST", drop, aoeErr)
	}

	_, _, drop = serveCFG(v, src, &CFGArg{Command: CFGCommandTest, Data: []byte("nope")})
	if !drop {
		t.Fatal("expected a non-matching TEST to be dropped")
	}
}

func TestServeCFGTestPrefix(t *testing.T) {
	v := newIdleVolume()
	v.setCFG([]byte("hello world"))
	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}

	_, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandTestPrefix, Data: []byte("hello")})
	if drop || aoeErr != 0 {
		t.Fatalf("unexpected drop=%v aoeErr=%v for matching prefix", drop, aoeErr)
	}

	_, _, drop = serveCFG(v, src, &CFGArg{Command: CFGCommandTestPrefix, Data: []byte("world")})
	if !drop {
		t.Fatal("expected a non-prefix TEST_PREFIX to be dropped")
	}

	_, _, drop = serveCFG(v, src, &CFGArg{Command: CFGCommandTestPrefix, Data: make([]byte, 100)})
	if !drop {
		t.Fatal("expected a too-long prefix to be dropped")
	}
}

func TestServeCFGSetWhenEmpty(t *testing.T) {
	v := newIdleVolume()
	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}

	_, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandSet, Data: []byte("new")})
	if drop || aoeErr != 0 {
		t.Fatalf("unexpected drop=%v aoeErr=%v", drop, aoeErr)
	}
	if string(v.cfgString()) != "new" {
		t.Fatalf("unexpected cfg string: %q", v.cfgString())
	}
}

func TestServeCFGSetWhenAlreadyPresent(t *testing.T) {
	v := newIdleVolume()
	v.setCFG([]byte("existing"))
	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}

	_, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandSet, Data: []byte("new")})
	if drop {
		t.Fatal("a rejected SET should still reply, not drop")
	}
	if aoeErr != ErrorConfigStringPresent {
		t.Fatalf("expected ErrorConfigStringPresent, got %v", aoeErr)
	}
	if string(v.cfgString()) != "existing" {
		t.Fatal("cfg string should be unchanged after a rejected SET")
	}
}

func TestServeCFGSetOversizedWhileEmpty(t *testing.T) {
	v := newIdleVolume()
	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}

	_, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandSet, Data: make([]byte, maxCFGData+1)})
	if drop {
		t.Fatal("a rejected SET should still reply, not drop")
	}
	if aoeErr != ErrorConfigStringPresent {
		t.Fatalf("expected ErrorConfigStringPresent for an oversized SET, got %v", aoeErr)
	}
}

func TestServeCFGForceSet(t *testing.T) {
	v := newIdleVolume()
	v.setCFG([]byte("existing"))
	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}

	_, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandForceSet, Data: []byte("replaced")})
	if drop || aoeErr != 0 {
		t.Fatalf("unexpected drop=%v aoeErr=%v", drop, aoeErr)
	}
	if string(v.cfgString()) != "replaced" {
		t.Fatalf("unexpected cfg string: %q", v.cfgString())
	}
}

func TestServeCFGForceSetOversized(t *testing.T) {
	v := newIdleVolume()
	src := net.HardwareAddr{0, 1, 2, 3, 4, 5}

	_, aoeErr, drop := serveCFG(v, src, &CFGArg{Command: CFGCommandForceSet, Data: make([]byte, maxCFGData+1)})
	if drop {
		t.Fatal("a rejected FORCE SET should still reply, not drop")
	}
	if aoeErr != ErrorBadArgumentParameter {
		t.Fatalf("expected ErrorBadArgumentParameter, got %v", aoeErr)
	}
}
