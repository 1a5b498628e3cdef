package makefile

// Template text for the emitted makefiles. The root makefile drives the
// per-component makefiles through module name/path/dependency dictionaries
// and generated build_X/clean_X/install_X/uninstall_X recipes; the child
// templates compile one component each and are self-contained so they can
// also be invoked directly from the component directory.

const rootTemplate = `#------------------------------------------------------------------------------
# waftools generated makefile
# version: {{.Meta.ToolVersion}}
{{- if .Meta.Revision}}
# revision: {{.Meta.Revision}}
{{- end}}
#------------------------------------------------------------------------------

SHELL=/bin/sh

# commas, spaces and tabs:
sp:=
sp+=
tab:=$(sp)$(sp)$(sp)$(sp)
comma:=,

# token for separating dictionary keys and values:
dsep:=;

# token for separating list elements:
lsep:=,

export APPNAME:={{.Meta.AppName}}
export APPVERSION:={{.Meta.AppVersion}}
export PREFIX:={{.Prefix}}
export TOP:=$(CURDIR)
export OUT:={{.Out}}
export AR:={{.Meta.AR}}
export CC:={{.Meta.CC}}
export CXX:={{.Meta.CXX}}
export CFLAGS:={{.Meta.CFlags}}
export CXXFLAGS:={{.Meta.CXXFlags}}
export DEFINES:={{.Meta.Defines}}
export RPATH:={{.Meta.RPath}}
export BINDIR:={{.Meta.BinDir}}
export LIBDIR:={{.Meta.LibDir}}

SEARCHPATH=components/
SEARCHFILE=Makefile

#------------------------------------------------------------------------------
# list of unique logical module names;
modules= \
	{{join .Modules " \\\n\t"}}

# dictionary of modules names (key) and paths to modules;
paths= \
	{{join .Paths " \\\n\t"}}

# dictionary of modules names (key) and module dependencies;
deps= \
	{{join .Deps " \\\n\t"}}

#------------------------------------------------------------------------------
# define targets
#------------------------------------------------------------------------------
build_targets=$(addprefix build_,$(modules))
clean_targets=$(addprefix clean_,$(modules))
install_targets=$(addprefix install_,$(modules))
uninstall_targets=$(addprefix uninstall_,$(modules))

cmds=build clean install uninstall
commands=$(sort $(cmds) all help find list modules $(foreach prefix,$(cmds),$($(prefix)_targets)))

.DEFAULT_GOAL:=all

#------------------------------------------------------------------------------
# recursive wild card implementation
#------------------------------------------------------------------------------
define rwildcard
$(wildcard $1$2) $(foreach d,$(wildcard $1*),$(call rwildcard,$d/,$2))
endef

#------------------------------------------------------------------------------
# returns the value from a dictionary
# $1 = key, where key is the functional name of the component.
# $2 = dictionary
#------------------------------------------------------------------------------
define getdval
$(subst $(lastword $(subst _,$(sp),$1))$(dsep),$(sp),$(filter $(lastword $(subst _,$(sp),$1))$(dsep)%,$2))
endef

#------------------------------------------------------------------------------
# returns path to makefile
# $1 = key, where key is the functional name of the component.
#------------------------------------------------------------------------------
define getpath
$(call getdval, $1, $(paths))
endef

#------------------------------------------------------------------------------
# returns component dependencies.
# $1 = key, where key is the functional name of the component.
#------------------------------------------------------------------------------
define getdeps
$(addprefix $(firstword $(subst _,$(sp),$1))_,$(subst $(lsep),$(sp),$(call getdval, $1, $(deps))))
endef

#------------------------------------------------------------------------------
# creates a make recipe
# $1 = key, where key is the functional recipe name (e.g. build_a).
#------------------------------------------------------------------------------
define domake
$1: $(call getdeps, $1)
	$(MAKE) -r -C $(call getpath,$1) $(firstword $(subst _,$(sp),$1))
endef

#------------------------------------------------------------------------------
# return files found in given search path
# $1 = search path
# $2 = file name so search
#------------------------------------------------------------------------------
define dofind
$(foreach path, $(dir $(call rwildcard,$1,$2)),echo "  $(path)";)
endef

#------------------------------------------------------------------------------
# definitions of recipes (i.e. make targets)
#------------------------------------------------------------------------------
all: build

build: $(build_targets)

clean: $(clean_targets)

install: build $(install_targets)

uninstall: $(uninstall_targets)

list:
	@echo ""
	@$(foreach cmd,$(commands),echo "  $(cmd)";)
	@echo ""

modules:
	@echo ""
	@$(foreach module,$(modules),echo "  $(module)";)
	@echo ""

find:
	@echo ""
	@echo "$@:"
	@echo "  path=$(SEARCHPATH) file=$(SEARCHFILE)"
	@echo ""
	@echo "result:"
	@$(call dofind,$(SEARCHPATH),$(SEARCHFILE))
	@echo ""

help:
	@echo ""
	@echo "$(APPNAME) version $(APPVERSION)"
	@echo ""
	@echo "usage:"
	@echo "  make [-r] [-s] [--jobs=N] [command] [VARIABLE=VALUE]"
	@echo ""
	@echo "commands:"
	@echo "  all                                 builds all modules"
	@echo "  build                               builds all modules"
	@echo "  build_a                             builds module 'a' and it's dependencies"
	@echo "  clean                               removes all build intermediates and outputs"
	@echo "  clean_a                             cleans module 'a' and it's dependencies"
	@echo "  install                             installs files in $(PREFIX)"
	@echo "  install_a                           installs module 'a' and it's dependencies"
	@echo "  uninstall                           removes all installed files from $(PREFIX)"
	@echo "  uninstall_a                         removes module 'a' and it's dependencies"
	@echo "  list                                list available make commands (i.e. recipes)"
	@echo "  modules                             list logical names of all modules"
	@echo "  find [SEARCHPATH=] [SEARCHFILE=]    searches for files default(path=$(SEARCHPATH),file=$(SEARCHFILE))"
	@echo "  help                                displays this help message."
	@echo ""
	@echo "remarks:"
	@echo "  use options '-r' and '--jobs=N' in order to improve speed"
	@echo "  use options '-s' to decrease verbosity"
	@echo ""

$(foreach t,$(build_targets),$(eval $(call domake,$t)))

$(foreach t,$(clean_targets),$(eval $(call domake,$t)))

$(foreach t,$(install_targets),$(eval $(call domake,$t)))

$(foreach t,$(uninstall_targets),$(eval $(call domake,$t)))

.PHONY: $(commands)
`

const childHeader = `#------------------------------------------------------------------------------
# waftools generated makefile
# version: {{.Meta.ToolVersion}}
{{- if .Meta.Revision}}
# revision: {{.Meta.Revision}}
{{- end}}
#------------------------------------------------------------------------------

SHELL=/bin/sh

# commas, spaces and tabs:
sp:=
sp+=
tab:=$(sp)$(sp)$(sp)$(sp)
comma:=,

#------------------------------------------------------------------------------
# definition of build and install locations
#------------------------------------------------------------------------------
ifeq ($(TOP),)
TOP=$(CURDIR)
OUT=$(TOP)/build
else
OUT=$(subst $(sp),/,$(call rptotop) build $(call rpofcomp))
endif
`

const childFooter = `
#------------------------------------------------------------------------------
# returns the relative path of this component from the top directory
#------------------------------------------------------------------------------
define rpofcomp
$(subst $(subst ~,$(HOME),$(TOP))/,,$(CURDIR))
endef

#------------------------------------------------------------------------------
# returns the relative path of this component to the top directory
#------------------------------------------------------------------------------
define rptotop
$(foreach word,$(subst /,$(sp),$(call rpofcomp)),..)
endef

#------------------------------------------------------------------------------
# define targets
#------------------------------------------------------------------------------
commands= build clean install uninstall all

.DEFAULT_GOAL=all
`

const programTemplate = childHeader + `
PREFIX?=$(HOME)
BINDIR?=$(PREFIX)/bin
LIBDIR?=$(PREFIX)/lib

#------------------------------------------------------------------------------
# component data
#------------------------------------------------------------------------------
BIN={{.Bin}}
OUTPUT=$(OUT)/$(BIN)

SOURCES= \
	{{join .Sources " \\\n\t"}}

OBJECTS=$(SOURCES:{{.SrcExt}}=.1.o)

DEFINES+={{.Defines}}
DEFINES:=$(addprefix -D,$(DEFINES))

INCLUDES+= \
	{{join .Includes " \\\n\t"}}

HEADERS:=$(foreach inc,$(INCLUDES),$(wildcard $(inc)/*.h))
INCLUDES:=$(addprefix -I,$(INCLUDES))

{{.FlagsVar}}+={{.Flags}}

LINKFLAGS+={{.LinkFlags}}

RPATH+=
RPATH:= $(addprefix -Wl$(comma)-rpath$(comma),$(RPATH))

LIBPATH_ST+={{join .LibPathsStatic " \\\n\t"}}
LIBPATH_ST:= $(addprefix -L,$(LIBPATH_ST))

LIB_ST+={{.LibsStatic}}
LIB_ST:= $(addprefix -l,$(LIB_ST))

LIBPATH_SH+={{join .LibPathsShared " \\\n\t"}}
LIBPATH_SH:= $(addprefix -L,$(LIBPATH_SH))

LINK_ST= -Wl,-Bstatic $(LIBPATH_ST) $(LIB_ST)

LIB_SH+={{.LibsShared}}
LIB_SH:= $(addprefix -l,$(LIB_SH))

LINK_SH= -Wl,-Bdynamic $(LIBPATH_SH) $(LIB_SH)
` + childFooter + `
#------------------------------------------------------------------------------
# definitions of recipes (i.e. make targets)
#------------------------------------------------------------------------------
all: build

build: $(OBJECTS)
	$({{.CompilerVar}}) $(LINKFLAGS) $(addprefix $(OUT)/,$(OBJECTS)) -o $(OUTPUT) $(RPATH) $(LINK_ST) $(LINK_SH)

clean:
	$(foreach obj,$(OBJECTS),rm -f $(OUT)/$(obj);)
	rm -f $(OUTPUT)

install: build
	mkdir -p $(BINDIR)
	cp $(OUTPUT) $(BINDIR)

uninstall:
	rm -f $(BINDIR)/$(BIN)

$(OBJECTS): $(HEADERS)
	mkdir -p $(OUT)/$(dir $@)
	$({{.CompilerVar}}) $({{.FlagsVar}}) $(INCLUDES) $(DEFINES) $(subst .1.o,{{.SrcExt}},$@) -c -o $(OUT)/$@

.PHONY: $(commands)
`

const staticLibTemplate = childHeader + `
#------------------------------------------------------------------------------
# component data
#------------------------------------------------------------------------------
LIB={{.Lib}}
OUTPUT=$(OUT)/$(LIB)

SOURCES= \
	{{join .Sources " \\\n\t"}}

OBJECTS=$(SOURCES:{{.SrcExt}}=.1.o)

DEFINES+={{.Defines}}
DEFINES:=$(addprefix -D,$(DEFINES))

INCLUDES+= \
	{{join .Includes " \\\n\t"}}

HEADERS:=$(foreach inc,$(INCLUDES),$(wildcard $(inc)/*.h))
INCLUDES:=$(addprefix -I,$(INCLUDES))

{{.FlagsVar}}+={{.Flags}}

ARFLAGS={{.ARFlags}}
` + childFooter + `
#------------------------------------------------------------------------------
# definitions of recipes (i.e. make targets)
#------------------------------------------------------------------------------
all: build

build: $(OBJECTS)
	$(AR) $(ARFLAGS) $(OUTPUT) $(addprefix $(OUT)/,$(OBJECTS))

clean:
	$(foreach obj,$(OBJECTS),rm -f $(OUT)/$(obj);)
	rm -f $(OUTPUT)

install:

uninstall:

$(OBJECTS): $(HEADERS)
	mkdir -p $(OUT)/$(dir $@)
	$({{.CompilerVar}}) $({{.FlagsVar}}) $(INCLUDES) $(DEFINES) $(subst .1.o,{{.SrcExt}},$@) -c -o $(OUT)/$@

.PHONY: $(commands)
`

const sharedLibTemplate = childHeader + `
PREFIX?=$(HOME)
LIBDIR?=$(PREFIX)/lib

#------------------------------------------------------------------------------
# component data
#------------------------------------------------------------------------------
LIB={{.Lib}}
OUTPUT=$(OUT)/$(LIB)

VNUM={{.VNum}}

SOURCES= \
	{{join .Sources " \\\n\t"}}

OBJECTS=$(SOURCES:{{.SrcExt}}=.1.o)

DEFINES+={{.Defines}}
DEFINES:=$(addprefix -D,$(DEFINES))

INCLUDES+= \
	{{join .Includes " \\\n\t"}}

HEADERS:=$(foreach inc,$(INCLUDES),$(wildcard $(inc)/*.h))
INCLUDES:=$(addprefix -I,$(INCLUDES))

{{.FlagsVar}}+={{.Flags}}

LINKFLAGS+={{.LinkFlags}}

RPATH+=
RPATH:= $(addprefix -Wl$(comma)-rpath$(comma),$(RPATH))

LIBPATH_ST+={{join .LibPathsStatic " \\\n\t"}}
LIBPATH_ST:= $(addprefix -L,$(LIBPATH_ST))

LIB_ST+={{.LibsStatic}}
LIB_ST:= $(addprefix -l,$(LIB_ST))

LIBPATH_SH+={{join .LibPathsShared " \\\n\t"}}
LIBPATH_SH:= $(addprefix -L,$(LIBPATH_SH))

LINK_ST= -Wl,-Bstatic $(LIBPATH_ST) $(LIB_ST)

LIB_SH+={{.LibsShared}}
LIB_SH:= $(addprefix -l,$(LIB_SH))

LINK_SH= -Wl,-Bdynamic $(LIBPATH_SH) $(LIB_SH)
` + childFooter + `
#------------------------------------------------------------------------------
# definitions of recipes (i.e. make targets)
#------------------------------------------------------------------------------
all: build

build: $(OBJECTS)
	$({{.CompilerVar}}) $(LINKFLAGS) $(addprefix $(OUT)/,$(OBJECTS)) -o $(OUTPUT) $(RPATH) $(LINK_ST) $(LINK_SH)

clean:
	$(foreach obj,$(OBJECTS),rm -f $(OUT)/$(obj);)
	rm -f $(OUTPUT)

install: build
	mkdir -p $(LIBDIR)
	cp $(OUTPUT) $(LIBDIR)
ifneq ($(VNUM),)
	ln -s -f $(LIBDIR)/$(LIB) $(LIBDIR)/$(LIB).$(VNUM)
endif

uninstall:
ifneq ($(VNUM),)
	rm -f $(LIBDIR)/$(LIB).$(VNUM)
endif
	rm -f $(LIBDIR)/$(LIB)

.PHONY: $(commands)
`
