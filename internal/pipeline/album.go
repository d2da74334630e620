package pipeline

import "repress/internal/scan"

// Album is the unit of post-transcode work: all files sharing one source
// directory.
type Album struct {
	Dir   string
	Items []scan.Item
}

// DestDir returns the destination directory the album's files land in.
func (a *Album) DestDir() string {
	if len(a.Items) == 0 {
		return ""
	}
	return a.Items[0].DestDir()
}

// SourceFiles returns the album's source paths in item order.
func (a *Album) SourceFiles() []string {
	files := make([]string, len(a.Items))
	for i, item := range a.Items {
		files[i] = item.Source
	}
	return files
}

// groupByAlbum buckets items by their source directory, preserving the
// order albums were first seen during discovery.
func groupByAlbum(items []scan.Item) []*Album {
	var albums []*Album
	index := make(map[string]*Album)
	for _, item := range items {
		dir := item.AlbumDir()
		album, ok := index[dir]
		if !ok {
			album = &Album{Dir: dir}
			index[dir] = album
			albums = append(albums, album)
		}
		album.Items = append(album.Items, item)
	}
	return albums
}
