// Package plugins hosts the processor plugin subpackages. It contains no
// runtime code itself; this file exists so the architecture guard test that
// lives alongside it has a package to belong to.
//
// A NOTE ON testhelper:
//
//	The subpackage plugins/testhelper builds processing passes backed by an
//	in-memory blob store. It is used only in tests. Do not import it in
//	production plugin code.
package plugins
