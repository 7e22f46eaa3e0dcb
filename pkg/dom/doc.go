// Package dom models the shell's placeholder elements and the document
// table that addresses them.
//
// A placeholder element is created for every navigation. It carries no
// markup of its own: it only exists so the server can bind a view to a
// stable, unique id. The Document owns the id counter and the id → element
// table; ids are never reissued and entries are never evicted.
//
//	doc := dom.NewDocument()
//	el := doc.CreateElement(dom.TagFor("main/users"), "main/users")
//	// el.ID == "flow-main-users-0"
package dom
