//go:build cgo && nereon

package nereon

/*
#cgo LDFLAGS: -lnereon
#include <stdbool.h>

#define CFG_MAX_NAME        64
#define CFG_MAX_LONG_SWITCH 32
#define CFG_MAX_SHORT_DESC  32
#define CFG_MAX_LONG_DESC   128
#define CFG_MAX_ENV_NAME    64
#define CFG_MAX_KEY_NAME    128

// Declarations match the published nereon.h.
typedef struct nereon_ctx {
	void *meta;
	int meta_count;
	void *cfg;
} nereon_ctx_t;

typedef struct nereon_cfg_options {
	char cfg_key[CFG_MAX_KEY_NAME];
	int cfg_type;
	struct nereon_cfg_options *childs;
	struct nereon_cfg_options *next;
	double cfg_data;
} nereon_cfg_options_t;

typedef struct nereon_meta_options {
	char cfg_name[CFG_MAX_NAME];
	int cfg_type;
	bool helper;
	char sw_short[2];
	char sw_long[CFG_MAX_LONG_SWITCH];
	char desc_short[CFG_MAX_SHORT_DESC];
	char desc_long[CFG_MAX_LONG_DESC];
	char cfg_env[CFG_MAX_ENV_NAME];
	char cfg_key[CFG_MAX_KEY_NAME];
	double cfg_data;
} nereon_meta_options_t;

int nereon_ctx_init(nereon_ctx_t *ctx, const char *cfg_path, const char *meta_path);
void nereon_ctx_finalize(nereon_ctx_t *ctx);
*/
import "C"

import (
	"fmt"
	"unsafe"

	"grimm.is/nereon/internal/cabi"
)

func init() {
	if err := checkNativeLayout(); err != nil {
		panic(err)
	}
}

// native calls into the linked libnereon. cabi.Ctx has the layout of
// nereon_ctx_t, so the Go value is handed to C in place.
type native struct{}

// NewNativeLibrary returns the libnereon binding.
func NewNativeLibrary() (Library, error) {
	return native{}, nil
}

func (native) Init(ctx *cabi.Ctx, cfgPath, metaPath *byte) int32 {
	rc := C.nereon_ctx_init(
		(*C.nereon_ctx_t)(unsafe.Pointer(ctx)),
		(*C.char)(unsafe.Pointer(cfgPath)),
		(*C.char)(unsafe.Pointer(metaPath)),
	)
	return int32(rc)
}

func (native) Finalize(ctx *cabi.Ctx) {
	C.nereon_ctx_finalize((*C.nereon_ctx_t)(unsafe.Pointer(ctx)))
}

func checkNativeLayout() error {
	var (
		cctx  C.nereon_ctx_t
		ccfg  C.nereon_cfg_options_t
		cmeta C.nereon_meta_options_t
		gctx  cabi.Ctx
		gcfg  cabi.Record
		gmeta cabi.Meta
	)

	checks := []struct {
		name       string
		cOff, gOff uintptr
	}{
		{"sizeof(nereon_ctx)", unsafe.Sizeof(cctx), unsafe.Sizeof(gctx)},
		{"nereon_ctx.meta_count", unsafe.Offsetof(cctx.meta_count), unsafe.Offsetof(gctx.MetaCount)},
		{"nereon_ctx.cfg", unsafe.Offsetof(cctx.cfg), unsafe.Offsetof(gctx.Cfg)},

		{"sizeof(nereon_cfg_options)", unsafe.Sizeof(ccfg), unsafe.Sizeof(gcfg)},
		{"cfg.cfg_type", unsafe.Offsetof(ccfg.cfg_type), unsafe.Offsetof(gcfg.Type)},
		{"cfg.childs", unsafe.Offsetof(ccfg.childs), unsafe.Offsetof(gcfg.Childs)},
		{"cfg.next", unsafe.Offsetof(ccfg.next), unsafe.Offsetof(gcfg.Next)},
		{"cfg.cfg_data", unsafe.Offsetof(ccfg.cfg_data), unsafe.Offsetof(gcfg.Data)},

		{"sizeof(nereon_meta_options)", unsafe.Sizeof(cmeta), unsafe.Sizeof(gmeta)},
		{"meta.helper", unsafe.Offsetof(cmeta.helper), unsafe.Offsetof(gmeta.Helper)},
		{"meta.cfg_key", unsafe.Offsetof(cmeta.cfg_key), unsafe.Offsetof(gmeta.Key)},
		{"meta.cfg_data", unsafe.Offsetof(cmeta.cfg_data), unsafe.Offsetof(gmeta.Data)},
	}
	for _, c := range checks {
		if c.cOff != c.gOff {
			return fmt.Errorf("nereon: layout mismatch for %s: C %d, Go %d", c.name, c.cOff, c.gOff)
		}
	}
	return nil
}
