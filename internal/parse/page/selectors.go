package page

// Ordered selector tables for event-card extraction. Spanish variants come
// first since most sources in the registry are porteño venue sites.

var eventSelectors = []string{
	".event", ".evento", ".event-item", ".event-card",
	".agenda-item", ".agenda-event", ".calendar-event", ".programacion-item",
	".actividad", ".actividad-item", ".cartelera-item", ".cartelera-event",
	"li[class*=\"event\"]", "li[class*=\"agenda\"]", "li[class*=\"actividad\"]",
	"div[class*=\"event\"]", "div[class*=\"agenda\"]", "div[class*=\"actividad\"]",
	"article[class*=\"event\"]", "article[class*=\"agenda\"]", "article[class*=\"actividad\"]",
	".card", ".item", ".post",
}

var titleSelectors = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	".title", ".titulo", ".event-title", ".evento-titulo",
	".name", ".nombre", ".event-name", ".evento-nombre",
	"a[class*=\"title\"]", "a[class*=\"titulo\"]",
	"span[class*=\"title\"]", "span[class*=\"titulo\"]",
}

var dateSelectors = []string{
	"time", "[datetime]", "[data-date]",
	".date", ".fecha", ".event-date", ".evento-fecha",
	".time", ".hora", ".event-time", ".evento-hora",
	".datetime", ".fechahora", ".schedule",
	"span[class*=\"date\"]", "span[class*=\"fecha\"]",
	"span[class*=\"time\"]", "span[class*=\"hora\"]",
}

var descriptionSelectors = []string{
	".description", ".descripcion", ".event-description", ".evento-descripcion",
	".summary", ".resumen", ".excerpt", ".extracto",
	".content", ".contenido", "p", ".text", ".texto",
}

var venueSelectors = []string{
	".venue", ".lugar", ".place", ".sitio",
	".address", ".direccion", ".ubicacion", ".location",
}

var priceSelectors = []string{
	".price", ".precio", ".costo", ".entrada", ".ticket",
	".tarifa", ".valor", ".cost", ".fee",
}
