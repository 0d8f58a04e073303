package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// PageLayout wraps content in the common document shell.
func PageLayout(title string, navbar g.Node, content g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title+" - rangeboard")),
				Script(Src("https://cdn.tailwindcss.com")),
				Script(Src("https://unpkg.com/htmx.org@2.0.4")),
				StyleEl(g.Raw(`
					tr.dq { background: #7f1d1d33; }
					tr.dnf { background: #78350f33; }
					tr.dragging { opacity: .4; }
					.zone-alpha { background: #16a34a; } .zone-charlie { background: #ca8a04; }
					.zone-delta { background: #ea580c; } .zone-miss { background: #dc2626; }
					.zone-noshoot { background: #6b7280; }
				`)),
			),
			Body(Class("bg-slate-950 font-sans antialiased flex flex-col min-h-screen text-slate-300"),
				navbar,
				Main(Class("container mx-auto flex-grow p-4"), content),
			),
		),
	})
}

// Navbar renders the top navigation with currentPath highlighted.
func Navbar(currentPath string) g.Node {
	navLink := func(href, label string) g.Node {
		base := "px-3 py-2 rounded-md text-sm font-medium "
		if currentPath == href {
			base += "text-cyan-400 bg-cyan-400/10"
		} else {
			base += "text-slate-400 hover:text-white"
		}
		return A(Href(href), Class(base), g.Text(label))
	}
	return Nav(Class("bg-slate-900/80 p-4 border-b border-slate-700/50"),
		Div(Class("container mx-auto flex justify-between items-center"),
			A(Href("/"), Class("text-xl font-bold"), g.Text("rangeboard")),
			Div(Class("flex space-x-1"),
				navLink("/statistics", "Statistics"),
				navLink("/stages", "Stages"),
				navLink("/stages/new", "New stage"),
				navLink("/shooters", "Shooters"),
			),
		),
	)
}

// errorBox is the inline error shown instead of page data.
func errorBox(msg string) g.Node {
	return Div(Class("error bg-red-900/20 border border-red-800/50 text-red-400 px-4 py-3 rounded-lg"),
		g.Text("Error: "+msg),
	)
}
