package emit

// runtimeShim defines the module registry and the require closure on the
// global object. It is idempotent so several chunks may carry it.
const runtimeShim = `(function (root) {
  if (root.__graphpack_require__) return;
  var modules = root.__graphpack_modules__ = root.__graphpack_modules__ || {};
  var cache = {};
  function load(id) {
    if (cache[id]) return cache[id].exports;
    var def = modules[id];
    if (!def) throw new Error("graphpack: module not registered: " + id);
    var module = cache[id] = { id: id, exports: {} };
    def.factory.call(module.exports, module, module.exports, function (spec) {
      if (!Object.prototype.hasOwnProperty.call(def.deps, spec)) {
        throw new Error("graphpack: cannot find '" + spec + "' from " + id);
      }
      return load(def.deps[spec]);
    });
    return module.exports;
  }
  root.__graphpack_require__ = load;
  root.__graphpack_start__ = function (ids) {
    for (var i = 0; i < ids.length; i++) load(ids[i]);
  };
})(typeof self !== "undefined" ? self : this);
`

const (
	chunkHeader = "(function (root) {\nvar modules = root.__graphpack_modules__ = root.__graphpack_modules__ || {};\n"
	chunkFooter = "})(typeof self !== \"undefined\" ? self : this);\n"
)
