// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package media stores candidate photos, party symbols and posters.

Uploads are sniffed for an image type (png, jpeg, gif, webp), given a
random name, and written under the media directory. The returned
reference is the URL path the file is served from, e.g.
/media/0b6c....png, and is what the registry stores.
*/
package media
